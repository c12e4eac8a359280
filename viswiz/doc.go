// Package viswiz provides an HTTP client for the VisWiz.io visual regression
// testing API.
//
// # Overview
//
// A Client authenticates with an account API key and exposes typed calls for
// the REST resources (account, webhooks, projects, notifications, builds and
// images). BuildFolder wraps the common CI workflow: scan a directory for PNG
// screenshots, create a build, upload every image and finish the build so the
// server compares it against the project baseline.
//
// # Client Usage
//
//	client, err := viswiz.NewClient("your-api-key")
//	if err != nil {
//		log.Fatalf("create client: %v", err)
//	}
//
//	buildID, err := client.BuildFolder(ctx, viswiz.BuildParams{
//		ProjectID: "mwwuciQG7ETAmKoyRHgkGg",
//		Branch:    "main",
//		Name:      "New amazing changes",
//		Revision:  "62388d1e81be184d4f255ca2354efef1e80fbfb8",
//	}, "./screenshots", viswiz.UploadOptions{
//		Progress: func(done, total int) { fmt.Printf("%d/%d\n", done, total) },
//	})
//
// An empty API key falls back to $VISWIZ_API_KEY and the server URL to
// $VISWIZ_SERVER, then https://api.viswiz.io.
//
// # Request Handling
//
// All requests:
//   - Carry Authorization: Bearer <key>, Accept: application/json and a
//     viswiz-go User-Agent
//   - Send JSON bodies, except image uploads which are multipart forms with
//     a "name" field and an "image" file part
//   - Use the caller's context for cancellation
//
// Image uploads are retried up to twice on transient failures (408, 429,
// 5xx gateway statuses and transport errors) with exponential backoff.
// Every other call makes exactly one attempt.
//
// # Error Handling
//
//   - *MissingParamError: a required argument was empty; nothing was sent
//   - ErrFileNotFound, ErrNoImages: local preconditions failed
//   - *APIError: the server answered with a non-2xx status
//   - wrapped *url.Error: DNS, connection or timeout failures
//
// Use errors.Is / errors.As, or StatusCode(err) for the HTTP status.
//
// # Image Names
//
// BuildFolder names each image after its path relative to the scanned
// directory with forward slashes and without the extension, so
// screenshots/home/header.png is uploaded as "home/header" on every OS.
package viswiz
