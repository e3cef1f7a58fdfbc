// Package titles builds YouTube titles and descriptions for produced videos.
// Output is randomized across a template catalog so consecutive uploads do not
// look machine-stamped, with themed variants for well-known topics.
package titles

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

var shortTemplates = []string{
	"Only %d%% Can Score %d/%d! 🧠",
	"Can You Beat This Quiz? 😱",
	"I Bet You Can't Answer All %d 🤔",
	"Quiz Time! Comment Your Score 👇",
	"How Smart Are You? Take This Quiz!",
	"Only Big Brains Can Score %d/%d 🎯",
	"The Question Everyone Gets Wrong 🤯",
	"Trivia Master or Trivia Disaster? 🎲",
}

var longformTemplates = []string{
	"%d Trivia Questions - General Knowledge Quiz",
	"Can You Score %d/%d? Take The Challenge!",
	"%d Questions That Will Test Your Knowledge",
	"How Many Can You Get Right? %d Question Quiz",
	"Brain Test: %d Trivia Questions",
	"The Ultimate Knowledge Test - %d Questions",
}

type theme struct {
	emoji     string
	shorts    []string
	longforms []string
	hashtags  []string
}

var themes = map[string]theme{
	"Science": {
		emoji:     "🔬",
		shorts:    []string{"Science Quiz - Only %d%% Pass! 🔬", "STEM Challenge: %d/%d Quiz 🧪"},
		longforms: []string{"%d Science Questions - Ultimate STEM Quiz 🔬", "Science Trivia Marathon - %d Questions! 🧪"},
		hashtags:  []string{"#science", "#stem"},
	},
	"History": {
		emoji:     "📜",
		shorts:    []string{"History Buffs ONLY! 📜 Quiz Challenge", "Do You Know Your History? %d/%d Test 📜"},
		longforms: []string{"%d History Questions - Test Your Knowledge 📜", "World History Challenge - %d Questions! ⏳"},
		hashtags:  []string{"#history", "#historical"},
	},
	"Geography": {
		emoji:     "🌍",
		shorts:    []string{"Geography Genius? 🌍 Test Yourself!", "World Geography Quiz - %d/%d 🌍"},
		longforms: []string{"%d Geography Questions - World Quiz 🌍", "Around The World: %d Question Challenge 🗺️"},
		hashtags:  []string{"#geography", "#world"},
	},
	"Sports": {
		emoji:     "⚽",
		shorts:    []string{"Sports Fan? Prove It! ⚽ Quiz", "Only TRUE Fans Score %d/%d! ⚽"},
		longforms: []string{"%d Sports Questions - Ultimate Fan Quiz 🏆", "Sports Trivia: %d Questions Across All Sports ⚽"},
		hashtags:  []string{"#sports", "#sportstrivia"},
	},
	"Entertainment": {
		emoji:     "🎬",
		shorts:    []string{"Movie Buff Challenge! 🎬 %d/%d", "Pop Culture Quiz - Do You Know It? 🎬"},
		longforms: []string{"Movies, Music & More: %d Entertainment Questions 🎬", "Pop Culture Quiz - %d Questions! 🎵"},
		hashtags:  []string{"#entertainment", "#popculture"},
	},
	"Nature": {
		emoji:     "🌿",
		shorts:    []string{"Animal Kingdom Quiz! 🌿 Can You Pass?", "Nature Lovers: %d/%d Challenge 🌿"},
		longforms: []string{"Animal & Nature Quiz - %d Questions 🦁", "The Natural World: %d Question Challenge! 🌿"},
		hashtags:  []string{"#nature", "#wildlife"},
	},
}

var percentChoices = []int{1, 2, 3, 5, 10}

// Catalog picks titles and descriptions. A fixed seed gives deterministic
// output for tests.
type Catalog struct {
	rng *rand.Rand
}

// NewCatalog builds a catalog. A non-positive seed uses the current time.
func NewCatalog(seed int64) *Catalog {
	if seed <= 0 {
		seed = time.Now().UnixNano()
	}
	return &Catalog{rng: rand.New(rand.NewSource(seed))}
}

// ShortTitle produces a title for a shorts upload. YouTube treats the
// "#shorts" suffix as the format marker, so it is always appended.
func (c *Catalog) ShortTitle(topic string, questionCount int) string {
	var template string
	if th, ok := themes[topic]; ok && len(th.shorts) > 0 {
		template = th.shorts[c.rng.Intn(len(th.shorts))]
	} else {
		template = shortTemplates[c.rng.Intn(len(shortTemplates))]
	}
	title := fillTemplate(template, c.rng, questionCount)
	return title + " #shorts"
}

// LongformTitle produces a title for a full-length upload.
func (c *Catalog) LongformTitle(topic string, questionCount int) string {
	var template string
	if th, ok := themes[topic]; ok && len(th.longforms) > 0 {
		template = th.longforms[c.rng.Intn(len(th.longforms))]
	} else {
		template = longformTemplates[c.rng.Intn(len(longformTemplates))]
	}
	return fillTemplate(template, c.rng, questionCount)
}

// Description produces the upload description with topical hashtags.
func (c *Catalog) Description(topic string, questionCount int, short bool) string {
	emoji := "🧠"
	hashtags := []string{"#quiz", "#trivia"}
	if th, ok := themes[topic]; ok {
		emoji = th.emoji
		hashtags = append(hashtags, th.hashtags...)
	}

	var b strings.Builder
	if short {
		topicText := ""
		if topic != "" {
			topicText = topic + " "
		}
		fmt.Fprintf(&b, "%s Test your brain with %d quick %strivia questions!\n\n", emoji, questionCount, topicText)
		b.WriteString("Comment your score below! 👇\n")
		b.WriteString("Can you beat it? Challenge your friends!\n\n")
		hashtags = append(hashtags, "#shorts", "#brainteaser")
		b.WriteString(strings.Join(hashtags, " "))
		b.WriteString("\n\nSubscribe for daily quizzes! 🔔")
		return b.String()
	}

	topicText := "covering various topics"
	if topic != "" {
		topicText = "about " + topic
	}
	fmt.Fprintf(&b, "Welcome to another trivia challenge! %s\n\n", emoji)
	fmt.Fprintf(&b, "This video contains %d questions %s.\n", questionCount, topicText)
	b.WriteString("Pause the video to think, then see if you got it right!\n\n")
	b.WriteString("📊 Comment your final score below!\n")
	b.WriteString("🔔 Subscribe for more quiz content!\n\n")
	hashtags = append(hashtags, "#brainteaser", "#challenge")
	b.WriteString(strings.Join(hashtags, " "))
	return b.String()
}

// fillTemplate substitutes the numeric placeholders a template declares. The
// verb count varies per template, so it is counted rather than assumed.
func fillTemplate(template string, rng *rand.Rand, questionCount int) string {
	percentSlots := strings.Count(template, "%d%%")
	slots := strings.Count(template, "%d") - percentSlots

	args := make([]any, 0, slots+percentSlots)
	if percentSlots > 0 {
		args = append(args, percentChoices[rng.Intn(len(percentChoices))])
	}
	for i := 0; i < slots; i++ {
		args = append(args, questionCount)
	}
	return fmt.Sprintf(template, args...)
}
