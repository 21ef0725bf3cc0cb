// Package catalog is the static registry of game descriptors shown in the
// game center.
package catalog

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Category groups games on the catalog page.
type Category string

const (
	CategoryAction     Category = "Action"
	CategoryPuzzle     Category = "Puzzle"
	CategoryStrategy   Category = "Strategy"
	CategoryArcade     Category = "Arcade"
	CategoryCasual     Category = "Casual"
	CategorySport      Category = "Sport"
	CategoryAdventure  Category = "Adventure"
	CategorySimulation Category = "Simulation"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryAction, CategoryPuzzle, CategoryStrategy, CategoryArcade,
	CategoryCasual, CategorySport, CategoryAdventure, CategorySimulation,
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

type Status string

const (
	StatusAvailable   Status = "Available"
	StatusComingSoon  Status = "Coming Soon"
	StatusMaintenance Status = "Maintenance"
)

var Statuses = []Status{StatusAvailable, StatusComingSoon, StatusMaintenance}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(string(d), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// ParseStatus also accepts "coming-soon" and "comingsoon" for Coming Soon.
func ParseStatus(s string) (Status, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if strings.ReplaceAll(strings.ToLower(string(st)), " ", "") == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// GameDescriptor is the catalog entry for one game.
type GameDescriptor struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Category    Category   `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Status      Status     `json:"status"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (g GameDescriptor) clone() GameDescriptor {
	g.Tags = slices.Clone(g.Tags)
	return g
}

func (g GameDescriptor) matches(term string) bool {
	if strings.Contains(strings.ToLower(g.Title), term) ||
		strings.Contains(strings.ToLower(g.Description), term) {
		return true
	}
	for _, tag := range g.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Filter narrows a listing. Zero-valued fields match everything.
type Filter struct {
	Category   Category
	Difficulty Difficulty
	Status     Status
	SearchTerm string
}

// Catalog is an immutable, ordered set of descriptors.
type Catalog struct {
	games []GameDescriptor
	byID  map[string]int
}

// New builds a catalog. Tags are deduplicated keeping first-seen order.
// Panics on duplicate or empty ids.
func New(games ...GameDescriptor) *Catalog {
	c := &Catalog{
		games: make([]GameDescriptor, 0, len(games)),
		byID:  make(map[string]int, len(games)),
	}
	for _, g := range games {
		if g.ID == "" {
			panic("catalog: game with empty id")
		}
		if _, exists := c.byID[g.ID]; exists {
			panic(fmt.Sprintf("catalog: game %q already registered", g.ID))
		}
		g.Tags = dedupe(g.Tags)
		c.byID[g.ID] = len(c.games)
		c.games = append(c.games, g)
	}
	return c
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// GetByID returns a descriptor by id.
func (c *Catalog) GetByID(id string) (GameDescriptor, bool) {
	i, ok := c.byID[id]
	if !ok {
		return GameDescriptor{}, false
	}
	return c.games[i].clone(), true
}

// All returns every descriptor in catalog order.
func (c *Catalog) All() []GameDescriptor {
	return c.Filter(Filter{})
}

func (c *Catalog) Available() []GameDescriptor {
	return c.FilterByStatus(StatusAvailable)
}

func (c *Catalog) FilterByCategory(category Category) []GameDescriptor {
	return c.Filter(Filter{Category: category})
}

func (c *Catalog) FilterByDifficulty(difficulty Difficulty) []GameDescriptor {
	return c.Filter(Filter{Difficulty: difficulty})
}

func (c *Catalog) FilterByStatus(status Status) []GameDescriptor {
	return c.Filter(Filter{Status: status})
}

// Search matches term case-insensitively as a substring of the title,
// description or any tag. An empty term matches everything.
func (c *Catalog) Search(term string) []GameDescriptor {
	return c.Filter(Filter{SearchTerm: term})
}

// Filter returns the descriptors matching every set criterion.
func (c *Catalog) Filter(f Filter) []GameDescriptor {
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	out := make([]GameDescriptor, 0, len(c.games))
	for _, g := range c.games {
		if f.Category != "" && g.Category != f.Category {
			continue
		}
		if f.Difficulty != "" && g.Difficulty != f.Difficulty {
			continue
		}
		if f.Status != "" && g.Status != f.Status {
			continue
		}
		if term != "" && !g.matches(term) {
			continue
		}
		out = append(out, g.clone())
	}
	return out
}

// Summary aggregates the catalog for the landing page.
type Summary struct {
	TotalGames        int                `json:"totalGames"`
	AvailableGames    int                `json:"availableGames"`
	ComingSoonGames   int                `json:"comingSoonGames"`
	GamesByCategory   map[Category]int   `json:"gamesByCategory"`
	GamesByDifficulty map[Difficulty]int `json:"gamesByDifficulty"`
}

func (c *Catalog) Summary() Summary {
	s := Summary{
		TotalGames:        len(c.games),
		GamesByCategory:   make(map[Category]int),
		GamesByDifficulty: make(map[Difficulty]int),
	}
	for _, g := range c.games {
		switch g.Status {
		case StatusAvailable:
			s.AvailableGames++
		case StatusComingSoon:
			s.ComingSoonGames++
		}
		s.GamesByCategory[g.Category]++
		s.GamesByDifficulty[g.Difficulty]++
	}
	return s
}
