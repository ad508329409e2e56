package tracker

import (
	"encoding/json"
	"os"
	"strings"
)

// Character is the persona injected into every thought prompt.
type Character struct {
	Name       string   `json:"name"`
	Age        string   `json:"age"`
	Occupation string   `json:"job_occupation"`
	Hobbies    []string `json:"hobbies"`
	Traits     []string `json:"traits"`
}

// DefaultCharacter is Yanami Anna, the persona the tracker was written for.
func DefaultCharacter() Character {
	return Character{
		Name:       "八奈见杏菜 (Yanami Anna)",
		Age:        "16",
		Occupation: "high school student",
		Hobbies:    []string{"eating snacks", "watching videos", "window shopping"},
		Traits:     []string{"lazy but observant", "food-motivated", "secretly thoughtful"},
	}
}

func (c Character) String() string {
	sb := strings.Builder{}
	sb.WriteString(c.Name)
	if c.Age != "" {
		sb.WriteString(", " + c.Age)
	}
	if c.Occupation != "" {
		sb.WriteString(", " + c.Occupation)
	}
	if len(c.Traits) > 0 {
		sb.WriteString(" (" + strings.Join(c.Traits, ", ") + ")")
	}
	return sb.String()
}

// LoadCharacter reads a persona from a JSON file.
func LoadCharacter(path string) (Character, error) {
	var c Character
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	err = json.Unmarshal(data, &c)
	return c, err
}
