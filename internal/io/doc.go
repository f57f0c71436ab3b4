// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Recognising image files by extension
//   - Resolving the media type sent with an image
//   - Waiting for files that may still be written
//   - Orienting and downscaling images before upload
//
// # Media Types
//
//	ioutils.MediaType("flyer.webp", "") // "image/webp"
//	ioutils.MediaType("flyer.bmp", "")  // "image/jpeg" (fallback)
//
// # Settling
//
//	// Fixed delay
//	_ = ioutils.Sleep(ctx, 500*time.Millisecond)
//
//	// Or poll size/mtime until unchanged
//	err := ioutils.WaitStable(ctx, path, 100*time.Millisecond, 10*time.Second)
//
// # Image Processing
//
//	svc := ioutils.NewImageService(2048, true)
//	data, mediaType, err := svc.Prepare(ctx, raw, "image/jpeg")
package ioutils
