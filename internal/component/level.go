package component

import (
	"fmt"
	"strings"
)

// Level is a hierarchy category. Its ordering for nesting purposes comes only
// from Weight; the declaration order below carries no meaning.
type Level string

// Hierarchy levels
const (
	LevelApp          Level = "app"
	LevelModule       Level = "module"
	LevelSubmodule    Level = "submodule"
	LevelEpic         Level = "epic"
	LevelStory        Level = "story"
	LevelFeature      Level = "feature"
	LevelComponent    Level = "component"
	LevelWidget       Level = "widget"
	LevelTask         Level = "task"
	LevelSubtask      Level = "subtask"
	LevelMicroservice Level = "microservice"
	LevelUtility      Level = "utility"
)

// levelWeights is the declared weight table. Microservice and Utility sit
// between Feature and Widget on purpose.
var levelWeights = map[Level]int{
	LevelApp:          100,
	LevelModule:       90,
	LevelSubmodule:    80,
	LevelEpic:         70,
	LevelStory:        60,
	LevelFeature:      50,
	LevelMicroservice: 45,
	LevelComponent:    40,
	LevelUtility:      35,
	LevelWidget:       30,
	LevelTask:         20,
	LevelSubtask:      10,
}

// Levels returns every known level in declaration order.
func Levels() []Level {
	return []Level{
		LevelApp, LevelModule, LevelSubmodule, LevelEpic, LevelStory, LevelFeature,
		LevelComponent, LevelWidget, LevelTask, LevelSubtask, LevelMicroservice, LevelUtility,
	}
}

// ParseLevel parses a case-insensitive level name
func ParseLevel(value string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(value)))
	if err := l.Validate(); err != nil {
		return "", err
	}
	return l, nil
}

// Validate checks if the level is known
func (l Level) Validate() error {
	if _, ok := levelWeights[l]; !ok {
		return fmt.Errorf("invalid hierarchy level %q", string(l))
	}
	return nil
}

// Weight returns the nesting weight. Unknown levels weigh 0 and therefore
// can contain nothing.
func (l Level) Weight() int {
	return levelWeights[l]
}

// CanContain reports whether a node of level child may nest directly under l.
func (l Level) CanContain(child Level) bool {
	return child.Weight() < l.Weight()
}

// String returns the string representation
func (l Level) String() string {
	return string(l)
}
