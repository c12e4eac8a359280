// Package apitest runs an in-memory VisWiz API on an httptest server for
// workflow and CLI tests. It checks bearer keys, keeps projects and builds
// in memory, and can inject failure statuses or slow down uploads.
package apitest
