package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/campusworks/jobwire/internal/domain"
)

// jobDoc is the RedisJSON representation of a job. The embedding lives at
// $.embedding as a plain float array so the vector index and JSON.SET partial
// updates agree on one canonical form.
type jobDoc struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	CompanyName       string    `json:"company_name"`
	LocationType      string    `json:"location_type,omitempty"`
	LocationSpecifics string    `json:"location_specifics,omitempty"`
	Requirements      []string  `json:"requirements,omitempty"`
	SalaryMin         float64   `json:"salary_min,omitempty"`
	SalaryMax         float64   `json:"salary_max,omitempty"`
	IsPaid            bool      `json:"is_paid,omitempty"`
	Link              string    `json:"link,omitempty"`
	AlumniConnection  string    `json:"alumni_connection,omitempty"`
	Status            string    `json:"status"`
	PostedBy          string    `json:"posted_by,omitempty"`
	PostedAt          time.Time `json:"posted_at"`
	Embedding         []float32 `json:"embedding,omitempty"`
}

func toDoc(j *domain.Job) *jobDoc {
	return &jobDoc{
		ID:                j.ID,
		Title:             j.Title,
		CompanyName:       j.CompanyName,
		LocationType:      j.LocationType,
		LocationSpecifics: j.LocationSpecifics,
		Requirements:      j.Requirements,
		SalaryMin:         j.SalaryMin,
		SalaryMax:         j.SalaryMax,
		IsPaid:            j.IsPaid,
		Link:              j.Link,
		AlumniConnection:  j.AlumniConnection,
		Status:            j.Status,
		PostedBy:          j.PostedBy,
		PostedAt:          j.PostedAt,
		Embedding:         j.Embedding,
	}
}

func (d *jobDoc) toDomain() domain.Job {
	return domain.Job{
		ID:                d.ID,
		Title:             d.Title,
		CompanyName:       d.CompanyName,
		LocationType:      d.LocationType,
		LocationSpecifics: d.LocationSpecifics,
		Requirements:      d.Requirements,
		SalaryMin:         d.SalaryMin,
		SalaryMax:         d.SalaryMax,
		IsPaid:            d.IsPaid,
		Link:              d.Link,
		AlumniConnection:  d.AlumniConnection,
		Status:            d.Status,
		PostedBy:          d.PostedBy,
		PostedAt:          d.PostedAt,
		Embedding:         d.Embedding,
	}
}

// parseJSONGetResult handles the array wrapper JSON.GET returns for "$" paths.
func parseJSONGetResult(raw []byte) (domain.Job, error) {
	var docs []jobDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		// Some paths return a bare object instead of an array.
		var d jobDoc
		if err2 := json.Unmarshal(raw, &d); err2 != nil {
			return domain.Job{}, fmt.Errorf("unmarshal job: %w", err)
		}
		return d.toDomain(), nil
	}
	if len(docs) == 0 {
		return domain.Job{}, fmt.Errorf("unmarshal job: empty result")
	}
	return docs[0].toDomain(), nil
}

// parseEntryJSON parses a single FT.SEARCH "$" field value.
func parseEntryJSON(jsonStr string) (domain.Job, bool) {
	if jsonStr == "" {
		return domain.Job{}, false
	}
	var d jobDoc
	if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
		return domain.Job{}, false
	}
	return d.toDomain(), true
}
