// Package domain contains the core domain types for the courses context.
package domain

// Course is a catalog entry. Catalog data is content, not chain state: it
// describes what a course is, while ownership records describe who bought it.
type Course struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CoverImage  string   `json:"coverImage"`
	Author      string   `json:"author"`
	Link        string   `json:"link"`
	Slug        string   `json:"slug"`
	WSL         []string `json:"wsl"`
	CreatedAt   string   `json:"createdAt"`
}

// Catalog is the full course list plus an id index.
type Catalog struct {
	courses []Course
	byID    map[string]Course
}

// NewCatalog builds a catalog from the raw course list.
func NewCatalog(courses []Course) *Catalog {
	byID := make(map[string]Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return &Catalog{courses: courses, byID: byID}
}

// All returns every course in catalog order.
func (c *Catalog) All() []Course {
	return c.courses
}

// ByID looks up a course by its catalog id.
func (c *Catalog) ByID(id string) (Course, bool) {
	course, ok := c.byID[id]
	return course, ok
}

// Len returns the number of courses.
func (c *Catalog) Len() int {
	return len(c.courses)
}
