package extract

import (
	"fmt"
	"strings"

	"github.com/handiism/concert-scanner/internal/model"
)

// jsonExtraction mirrors the model's JSON reply. Pointer fields tell a
// missing key apart from an empty value.
type jsonExtraction struct {
	Bands *[]jsonBand `json:"bands"`
}

type jsonBand struct {
	BandName *string        `json:"band_name"`
	Concerts *[]jsonConcert `json:"concerts"`
}

type jsonConcert struct {
	Venue     *string `json:"venue"`
	Location  *string `json:"location"`
	Date      *string `json:"date"`
	EventName *string `json:"event_name"`
}

// toExtraction checks required keys and converts to the model types.
func (je *jsonExtraction) toExtraction() (*model.ConcertExtraction, error) {
	if je.Bands == nil {
		return nil, fmt.Errorf("missing \"bands\"")
	}

	ex := &model.ConcertExtraction{Bands: make([]model.BandInfo, 0, len(*je.Bands))}
	for i, jb := range *je.Bands {
		if jb.BandName == nil {
			return nil, fmt.Errorf("bands[%d]: missing \"band_name\"", i)
		}
		if jb.Concerts == nil {
			return nil, fmt.Errorf("bands[%d]: missing \"concerts\"", i)
		}

		band := model.BandInfo{
			BandName: strings.TrimSpace(*jb.BandName),
			Concerts: make([]model.Concert, 0, len(*jb.Concerts)),
		}
		for j, jc := range *jb.Concerts {
			c, err := jc.toConcert()
			if err != nil {
				return nil, fmt.Errorf("bands[%d].concerts[%d]: %w", i, j, err)
			}
			band.Concerts = append(band.Concerts, c)
		}
		ex.Bands = append(ex.Bands, band)
	}
	return ex, nil
}

func (jc *jsonConcert) toConcert() (model.Concert, error) {
	switch {
	case jc.Venue == nil:
		return model.Concert{}, fmt.Errorf("missing \"venue\"")
	case jc.Location == nil:
		return model.Concert{}, fmt.Errorf("missing \"location\"")
	case jc.Date == nil:
		return model.Concert{}, fmt.Errorf("missing \"date\"")
	}

	c := model.Concert{
		Venue:    strings.TrimSpace(*jc.Venue),
		Location: strings.TrimSpace(*jc.Location),
		Date:     strings.TrimSpace(*jc.Date),
	}
	// Some models answer "" instead of null for "no event".
	if jc.EventName != nil {
		if name := strings.TrimSpace(*jc.EventName); name != "" {
			c.EventName = &name
		}
	}
	return c, nil
}
