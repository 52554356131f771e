// Package upload sends gallery images to object storage.
//
// An Uploader stores one file and returns its public URL. Three are
// provided:
//   - HTTPStore posts a multipart form to a third-party storage endpoint
//     with bearer or basic credentials and reads {"url": "..."} back.
//   - S3Store puts the object into an S3 bucket.
//   - DiskStore writes into a local directory, for development.
//
// Every store enforces Config.MaxFileSize while copying and Check rejects
// oversized or disallowed files before any network call. A size failure
// is classified as errors.KindTooLarge so the caller shows the single
// "file too large" message.
//
// # Selection
//
// A Selection is the set of files picked in the gallery form. It is only
// cleared after a successful upload; a failed upload leaves it intact so
// the user can retry or adjust.
//
//	sel := upload.NewSelection()
//	sel.Add(file)
//	urls, err := gallery.Upload(ctx, sel)
package upload
