package catalog

import "time"

var launchDate = time.Date(2025, time.June, 22, 0, 0, 0, 0, time.UTC)

// Default returns the built-in catalog: the two playable games followed by
// the template entries.
func Default() *Catalog {
	return New(
		GameDescriptor{
			ID:          "guess-the-number",
			Title:       "Guess the Number",
			Description: "Find the hidden number between 1 and 100 in as few attempts as you can.",
			Icon:        "🎯",
			Category:    CategoryPuzzle,
			Difficulty:  DifficultyEasy,
			Status:      StatusAvailable,
			Tags:        []string{"numbers", "logic", "beginner"},
			CreatedAt:   launchDate,
			UpdatedAt:   launchDate,
		},
		GameDescriptor{
			ID:          "rock-paper-scissors",
			Title:       "Rock Paper Scissors",
			Description: "Beat the CPU hand after hand and build the longest win streak.",
			Icon:        "✊",
			Category:    CategoryCasual,
			Difficulty:  DifficultyEasy,
			Status:      StatusAvailable,
			Tags:        []string{"classic", "luck", "streak"},
			CreatedAt:   launchDate,
			UpdatedAt:   launchDate,
		},
		template("game-template-1", "Game Template 1", "A casual game template. Simple enough for anyone to enjoy.",
			"🎮", CategoryCasual, DifficultyEasy, StatusAvailable, "template", "casual", "beginner"),
		template("game-template-2", "Game Template 2", "A puzzle game template. Put your head to work.",
			"🧩", CategoryPuzzle, DifficultyMedium, StatusAvailable, "template", "puzzle", "thinking"),
		template("game-template-3", "Game Template 3", "An action game template full of thrills.",
			"⚡", CategoryAction, DifficultyHard, StatusComingSoon, "template", "action", "advanced"),
		template("game-template-4", "Game Template 4", "An arcade game template with a nostalgic feel.",
			"🕹️", CategoryArcade, DifficultyMedium, StatusAvailable, "template", "arcade", "retro"),
		template("game-template-5", "Game Template 5", "A strategy game template. Take your time and plan ahead.",
			"♟️", CategoryStrategy, DifficultyHard, StatusAvailable, "template", "strategy", "tactics"),
		template("game-template-6", "Game Template 6", "A sports game template that gets you moving.",
			"⚽", CategorySport, DifficultyEasy, StatusComingSoon, "template", "sport", "exercise"),
	)
}

func template(id, title, desc, icon string, c Category, d Difficulty, s Status, tags ...string) GameDescriptor {
	return GameDescriptor{
		ID:          id,
		Title:       title,
		Description: desc,
		Icon:        icon,
		Category:    c,
		Difficulty:  d,
		Status:      s,
		Tags:        tags,
		CreatedAt:   launchDate,
		UpdatedAt:   launchDate,
	}
}
