package domain

import "time"

// WarrantyClause is one titled section of the fence warranty.
type WarrantyClause struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// WarrantyClauses are the fixed terms shown on the dashboard and printed in
// the downloadable agreement.
var WarrantyClauses = []WarrantyClause{
	{
		Title: "Lifetime Workmanship Warranty",
		Body: "Green View Solutions provides a lifetime warranty on workmanship, valid only if regular maintenance " +
			"including staining and clear coating is performed every 2 years by our certified technicians. " +
			"This ensures the longevity and quality of your fence investment.",
	},
	{
		Title: "Weather Damage Exclusions",
		Body: "The warranty does not cover damage resulting from extreme weather conditions, including but not limited to " +
			"winds exceeding 60 mph, hurricanes, tornadoes, flooding, lightning strikes, or other severe weather events " +
			"beyond our control.",
	},
	{
		Title: "External Impact Exclusions",
		Body: "The warranty does not cover damage caused by external impacts or collisions, including but not limited to " +
			"falling trees or branches, vehicle impacts, lawn equipment, or any other objects striking the fence. " +
			"Regular inspection is recommended to identify and address any such damage promptly.",
	},
	{
		Title: "Maintenance Requirements",
		Body: "To maintain warranty coverage, customers must adhere to the recommended maintenance schedule, " +
			"including professional inspections, cleaning, and treatments every 2 years. Failure to maintain " +
			"this schedule may void the warranty.",
	},
}

// WarrantySummary is the warranty panel of the customer dashboard.
type WarrantySummary struct {
	Status         string           `json:"status"`
	Active         bool             `json:"active"`
	IssueDate      *time.Time       `json:"issue_date,omitempty"`
	NextReviewDate *time.Time       `json:"next_review_date,omitempty"`
	Clauses        []WarrantyClause `json:"clauses"`
}

// WarrantyFor summarises the warranty of a profile.
func WarrantyFor(p CustomerProfile) WarrantySummary {
	status := p.WarrantyStatus
	if status == "" {
		status = "Unknown"
	}
	return WarrantySummary{
		Status:         status,
		Active:         p.WarrantyStatus == WarrantyActive,
		IssueDate:      p.WarrantyIssueDate,
		NextReviewDate: p.NextReviewDate,
		Clauses:        WarrantyClauses,
	}
}
