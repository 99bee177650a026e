package model

type BadgeCategory string

const (
	BadgeAchievement BadgeCategory = "achievement"
	BadgeStreak      BadgeCategory = "streak"
	BadgeMilestone   BadgeCategory = "milestone"
)

// Badge is a static template; the catalog is fixed at build time and only
// the awarded (childID, badgeID) pairs are persisted.
type Badge struct {
	ID       string
	Name     string
	Category BadgeCategory
	XPBonus  int
	Criteria func(p *Progress) bool
}
