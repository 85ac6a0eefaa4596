// Package generation turns a prompt into platform content and charges for it.
package generation

import (
	"fmt"
	"strings"

	"github.com/yx-elite/social-media-content-generator/app/models"
)

// instagramMaxTokens leaves room for a 500 word caption.
const instagramMaxTokens = 1024

// ProviderRequest is one chat completion: a single user turn, optionally with an image.
type ProviderRequest struct {
	Instruction string
	ImageURL    string
	MaxTokens   int
}

// Strategy is the per-platform part of a generation.
type Strategy interface {
	BuildRequest(prompt, image string) ProviderRequest
	Parse(text string) []string
	RequiresImage() bool
}

var strategies = map[models.ContentType]Strategy{
	models.ContentTwitter:   twitter{},
	models.ContentInstagram: instagram{},
	models.ContentLinkedIn:  linkedin{},
}

func StrategyFor(t models.ContentType) (Strategy, bool) {
	s, ok := strategies[t]
	return s, ok
}

func baseInstruction(t models.ContentType, prompt string) string {
	return fmt.Sprintf("Generate %s content about \"%s\". Direct into the content field.", t, prompt)
}

type twitter struct{}

func (twitter) BuildRequest(prompt, _ string) ProviderRequest {
	return ProviderRequest{
		Instruction: baseInstruction(models.ContentTwitter, prompt) +
			" Provide a thread of 5 tweets, each under 280 characters. Separate each tweet with 2 new lines (\n\n).",
	}
}

// Parse splits the thread on blank lines and drops empty tweets.
func (twitter) Parse(text string) []string {
	var parts []string
	for _, p := range strings.Split(text, models.ContentSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func (twitter) RequiresImage() bool { return false }

type instagram struct{}

func (instagram) BuildRequest(prompt, image string) ProviderRequest {
	return ProviderRequest{
		Instruction: baseInstruction(models.ContentInstagram, prompt) +
			" Describe the image and incorporate it into the caption. The maximum generated word is 500 words",
		ImageURL:  image,
		MaxTokens: instagramMaxTokens,
	}
}

func (instagram) Parse(text string) []string { return single(text) }

func (instagram) RequiresImage() bool { return true }

type linkedin struct{}

func (linkedin) BuildRequest(prompt, _ string) ProviderRequest {
	return ProviderRequest{Instruction: baseInstruction(models.ContentLinkedIn, prompt)}
}

func (linkedin) Parse(text string) []string { return single(text) }

func (linkedin) RequiresImage() bool { return false }

func single(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return []string{text}
}

// validImage accepts a base64 data URI such as "data:image/png;base64,...".
func validImage(image string) bool {
	return strings.HasPrefix(image, "data:") && strings.Contains(image, ",") && !strings.HasSuffix(image, ",")
}
