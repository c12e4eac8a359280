package viswiz

import (
	"encoding/json"
	"strings"
	"time"
)

// Account mirrors the payload returned by /account.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Webhook is an endpoint notified when a build comparison finishes.
type Webhook struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	URL       string `json:"url"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// WebhookParams is the body of POST /webhooks.
type WebhookParams struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// webhookList mirrors GET /webhooks.
type webhookList struct {
	Webhooks []Webhook `json:"webhooks"`
}

// Project groups builds compared against a baseline branch.
type Project struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	URL            string `json:"url,omitempty"`
	BaselineBranch string `json:"baselineBranch,omitempty"`
}

// ProjectParams is the body of POST /projects.
type ProjectParams struct {
	Name           string `json:"name"`
	URL            string `json:"url,omitempty"`
	BaselineBranch string `json:"baselineBranch,omitempty"`
}

// projectList mirrors GET /projects.
type projectList struct {
	Projects []Project `json:"projects"`
}

// Notifications holds the per-project notification settings.
type Notifications struct {
	EmailEnabled bool   `json:"emailEnabled"`
	SlackEnabled bool   `json:"slackEnabled"`
	SlackURL     string `json:"slackURL"`
}

// Build is a versioned collection of images submitted for comparison.
type Build struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectID,omitempty"`
	Branch    string `json:"branch"`
	Name      string `json:"name"`
	Revision  string `json:"revision"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp, or the zero time.
func (b Build) ParsedCreatedAt() time.Time {
	return parseTime(b.CreatedAt)
}

// BuildParams describes a build to create. ProjectID selects the endpoint
// and is not part of the request body.
type BuildParams struct {
	ProjectID string `json:"projectID" validate:"required"`
	Branch    string `json:"branch"`
	Name      string `json:"name"`
	Revision  string `json:"revision"`
}

// buildBody is BuildParams without the project id.
type buildBody struct {
	Branch   string `json:"branch"`
	Name     string `json:"name"`
	Revision string `json:"revision"`
}

func (p BuildParams) body() buildBody {
	return buildBody{Branch: p.Branch, Name: p.Name, Revision: p.Revision}
}

// buildList mirrors GET /projects/:id/builds.
type buildList struct {
	Builds []Build `json:"builds"`
}

// Image is an uploaded screenshot.
type Image struct {
	Name        string `json:"name"`
	OriginalURL string `json:"originalURL"`
	ThumbURL    string `json:"thumbURL"`
}

// imageList mirrors GET /builds/:id/images.
type imageList struct {
	Images []Image `json:"images"`
}

// BuildResults summarizes a finished comparison. Raw keeps the complete
// payload for fields not modelled here.
type BuildResults struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	DiffCount int           `json:"diffCount"`
	Images    []ImageResult `json:"images"`

	Raw json.RawMessage `json:"-"`
}

// ImageResult is the comparison outcome for one image.
type ImageResult struct {
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	DiffPercentage float64 `json:"diffPercentage"`
	DiffURL        string  `json:"diffURL,omitempty"`
}

// UnmarshalJSON decodes the known fields and retains the raw payload.
func (r *BuildResults) UnmarshalJSON(data []byte) error {
	type plain BuildResults
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = BuildResults(decoded)
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// HasDiffs reports whether any image differs from the baseline.
func (r BuildResults) HasDiffs() bool {
	if r.DiffCount > 0 {
		return true
	}
	for _, img := range r.Images {
		if img.DiffPercentage > 0 {
			return true
		}
	}
	return false
}

// Finished reports whether the comparison is complete. Builds waiting in the
// queue or being compared report false.
func (r BuildResults) Finished() bool {
	switch strings.ToLower(strings.TrimSpace(r.Status)) {
	case "", "pending", "queued", "processing", "running":
		return false
	}
	return true
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
