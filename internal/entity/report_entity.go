package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	ReportStatusPending      ReportStatus = "PENDING"
	ReportStatusAcknowledged ReportStatus = "ACKNOWLEDGED"
	ReportStatusInProgress   ReportStatus = "IN_PROGRESS"
	ReportStatusResolved     ReportStatus = "RESOLVED"
	ReportStatusRejected     ReportStatus = "REJECTED"
	ReportStatusDuplicate    ReportStatus = "DUPLICATE"
)

var ReportStatuses = []ReportStatus{
	ReportStatusPending,
	ReportStatusAcknowledged,
	ReportStatusInProgress,
	ReportStatusResolved,
	ReportStatusRejected,
	ReportStatusDuplicate,
}

func (s ReportStatus) Valid() bool {
	return slices.Contains(ReportStatuses, s)
}

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Category string

const (
	CategoryRoadsTransport   Category = "ROADS_TRANSPORT"
	CategoryUtilities        Category = "UTILITIES"
	CategoryEnvironment      Category = "ENVIRONMENT"
	CategoryPublicSafety     Category = "PUBLIC_SAFETY"
	CategoryInfrastructure   Category = "INFRASTRUCTURE"
	CategoryWasteManagement  Category = "WASTE_MANAGEMENT"
	CategoryParksRecreation  Category = "PARKS_RECREATION"
	CategoryHousing          Category = "HOUSING"
	CategoryHealthSanitation Category = "HEALTH_SANITATION"
	CategoryOther            Category = "OTHER"
)

// Subcategories is the closed subcategory set of each top-level category.
var Subcategories = map[Category][]string{
	CategoryRoadsTransport:   {"Potholes", "Traffic Signals", "Road Signs", "Public Transit", "Parking Issues"},
	CategoryUtilities:        {"Street Lights", "Power Lines", "Water Supply", "Gas Lines", "Internet/Cable"},
	CategoryEnvironment:      {"Graffiti", "Litter", "Air Quality", "Noise Pollution", "Illegal Dumping"},
	CategoryPublicSafety:     {"Broken Equipment", "Unsafe Conditions", "Emergency Access", "Security Issues"},
	CategoryInfrastructure:   {"Sidewalks", "Bridges", "Buildings", "Drainage", "Construction Issues"},
	CategoryWasteManagement:  {"Missed Collection", "Overflowing Bins", "Recycling Issues", "Hazardous Waste"},
	CategoryParksRecreation:  {"Playground Equipment", "Sports Facilities", "Landscaping", "Park Maintenance"},
	CategoryHousing:          {"Public Housing", "Building Violations", "Zoning Issues", "Property Maintenance"},
	CategoryHealthSanitation: {"Pest Control", "Food Safety", "Public Restrooms", "Water Quality"},
	CategoryOther:            {"General Inquiry", "Suggestion", "Complaint", "Other Issue"},
}

func (c Category) Valid() bool {
	_, ok := Subcategories[c]
	return ok
}

// AllowsSubcategory reports whether sub belongs to c. An empty sub is always allowed.
func (c Category) AllowsSubcategory(sub string) bool {
	if sub == "" {
		return true
	}
	return slices.Contains(Subcategories[c], sub)
}

type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
	Landmark  *string
}

type Report struct {
	Id             uuid.UUID
	Title          string
	Description    string
	Category       Category
	SubCategory    *string
	Priority       Priority
	Status         ReportStatus
	Location       Location
	Images         []string
	ImageEmbedding []float32 // nil when no image could be embedded
	SimilarReports []uuid.UUID
	DuplicateOfId  *uuid.UUID
	Upvotes        int
	ReporterId     uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r *Report) HasEmbedding() bool {
	return len(r.ImageEmbedding) > 0
}

// StatusUpdate is append-only; it is never edited or deleted.
type StatusUpdate struct {
	Id        uuid.UUID
	ReportId  uuid.UUID
	Status    ReportStatus
	Message   string
	UpdatedBy uuid.UUID
	CreatedAt time.Time
}

type Vote struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	ReportId  uuid.UUID
	CreatedAt time.Time
}

// ReportVector is the slim projection used to build a similarity population.
type ReportVector struct {
	Id             uuid.UUID
	ImageEmbedding []float32
	Status         ReportStatus
	Category       Category
	Latitude       float64
	Longitude      float64
	CreatedAt      time.Time
}
