package services

import "wayfarer/internal/models"

// Badge ids referenced by the rule table.
const (
	BADGE_FIRST_LOGIN = "first_login"
	BADGE_TOUR_1      = "tour_1"
	BADGE_TOUR_3      = "tour_3"
	BADGE_TOUR_5      = "tour_5"
	BADGE_TOUR_10     = "tour_10"
	BADGE_QUIZ_3      = "quiz_3"
	BADGE_QUIZ_5      = "quiz_5"
	BADGE_QUIZ_10     = "quiz_10"
	BADGE_OLD_TOWN    = "loc_old_town"
	BADGE_HARBOR      = "loc_harbor"
	BADGE_OBSERVATORY = "loc_observatory"
)

type tierRule struct {
	Threshold int
	BadgeID   string
}

// Highest tier first. CheckConditions grants the first rule whose threshold
// the reported count satisfies, so a single call awards at most the highest
// earned tier.
var tourMilestones = []tierRule{
	{10, BADGE_TOUR_10},
	{5, BADGE_TOUR_5},
	{3, BADGE_TOUR_3},
	{1, BADGE_TOUR_1},
}

var quizMilestones = []tierRule{
	{10, BADGE_QUIZ_10},
	{5, BADGE_QUIZ_5},
	{3, BADGE_QUIZ_3},
}

type locationRule struct {
	Token   string
	BadgeID string
}

// locationBadges lists recognized location tokens (matched case-insensitively
// against placeName/placeId metadata) and each location's exclusive badge.
// Order matters: a place matching several tokens awards the first rule.
var locationBadges = []locationRule{
	{"old_town", BADGE_OLD_TOWN},
	{"harbor", BADGE_HARBOR},
	{"observatory", BADGE_OBSERVATORY},
}

// badgeCatalog is the static, version-controlled badge catalog. The engine
// treats it as read-only configuration.
var badgeCatalog = []models.Badge{
	{
		ID:          BADGE_FIRST_LOGIN,
		Type:        models.BadgeTypeGrowthMilestone,
		Name:        "Welcome Aboard",
		Description: "Signed in to Wayfarer for the first time.",
		DisplayType: models.DisplayTypeModal,
		Condition:   "first successful login",
		Trigger:     string(models.TriggerFirstLogin),
	},
	{
		ID:          BADGE_TOUR_1,
		Type:        models.BadgeTypeGrowthMilestone,
		Name:        "First Steps",
		Description: "Completed your first guided tour.",
		DisplayType: models.DisplayTypeModal,
		Condition:   "at least 1 completed tour",
		Trigger:     string(models.TriggerTourCompleted),
	},
	{
		ID:          BADGE_TOUR_3,
		Type:        models.BadgeTypeGrowthMilestone,
		Name:        "Getting the Hang of It",
		Description: "Completed 3 guided tours.",
		DisplayType: models.DisplayTypeModal,
		Condition:   "at least 3 completed tours",
		Trigger:     string(models.TriggerTourCompleted),
	},
	{
		ID:          BADGE_TOUR_5,
		Type:        models.BadgeTypeGrowthMilestone,
		Name:        "Seasoned Walker",
		Description: "Completed 5 guided tours.",
		DisplayType: models.DisplayTypeModal,
		Condition:   "at least 5 completed tours",
		Trigger:     string(models.TriggerTourCompleted),
	},
	{
		ID:          BADGE_TOUR_10,
		Type:        models.BadgeTypeGrowthMilestone,
		Name:        "Pathfinder",
		Description: "Completed 10 guided tours.",
		DisplayType: models.DisplayTypeModal,
		Condition:   "at least 10 completed tours",
		Trigger:     string(models.TriggerTourCompleted),
	},
	{
		ID:          BADGE_QUIZ_3,
		Type:        models.BadgeTypeTaskAchievement,
		Name:        "Quick Study",
		Description: "Answered 3 quiz questions correctly.",
		DisplayType: models.DisplayTypeChat,
		Condition:   "at least 3 correct quiz answers",
		Trigger:     string(models.TriggerQuizCompleted),
	},
	{
		ID:          BADGE_QUIZ_5,
		Type:        models.BadgeTypeTaskAchievement,
		Name:        "Local Scholar",
		Description: "Answered 5 quiz questions correctly.",
		DisplayType: models.DisplayTypeChat,
		Condition:   "at least 5 correct quiz answers",
		Trigger:     string(models.TriggerQuizCompleted),
	},
	{
		ID:          BADGE_QUIZ_10,
		Type:        models.BadgeTypeTaskAchievement,
		Name:        "Walking Encyclopedia",
		Description: "Answered 10 quiz questions correctly.",
		DisplayType: models.DisplayTypeChat,
		Condition:   "at least 10 correct quiz answers",
		Trigger:     string(models.TriggerQuizCompleted),
	},
	{
		ID:          BADGE_OLD_TOWN,
		Type:        models.BadgeTypeLocationLimited,
		Name:        "Old Town Wanderer",
		Description: "Visited the Old Town quarter.",
		DisplayType: models.DisplayTypeModal,
		Condition:   "entered the old_town area",
		Trigger:     string(models.TriggerLocationSpecific),
	},
	{
		ID:          BADGE_HARBOR,
		Type:        models.BadgeTypeLocationLimited,
		Name:        "Harbor Hand",
		Description: "Visited the harbor front.",
		DisplayType: models.DisplayTypeModal,
		Condition:   "entered the harbor area",
		Trigger:     string(models.TriggerLocationSpecific),
	},
	{
		ID:          BADGE_OBSERVATORY,
		Type:        models.BadgeTypeExplorationAchievement,
		Name:        "Stargazer",
		Description: "Made it up to the observatory.",
		DisplayType: models.DisplayTypeModal,
		Condition:   "entered the observatory area",
		Trigger:     string(models.TriggerLocationSpecific),
	},
}

var badgeByID = func() map[string]models.Badge {
	m := make(map[string]models.Badge, len(badgeCatalog))
	for _, b := range badgeCatalog {
		m[b.ID] = b
	}
	return m
}()

// BadgeCatalog returns a copy of the static catalog.
func BadgeCatalog() []models.Badge {
	out := make([]models.Badge, len(badgeCatalog))
	copy(out, badgeCatalog)
	return out
}
