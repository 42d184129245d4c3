package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
)

const (
	frontPrefix = "Q:"
	backPrefix  = "A:"
	separator   = "---"
)

type state int

const (
	seeking state = iota
	readingFront
	readingBack
)

// ParseFile reads a markdown file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse extracts cards from markdown. A card starts at a "Q:" line, its back
// starts at an "A:" line, and both may run over several lines. A new "Q:" or a
// "---" line ends the current card. Cards without a back are dropped.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Card
	var current domain.Card
	var block []string
	st := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch st {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		}
		block = nil
	}
	finishCard := func() {
		flushBlock()
		if current.Front != "" && current.Back != "" {
			cards = append(cards, current)
		}
		current = domain.Card{}
		st = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == separator:
			finishCard()
		case strings.HasPrefix(line, frontPrefix):
			if st != seeking {
				finishCard()
			}
			st = readingFront
			block = append(block, trimPrefix(line, frontPrefix))
		case strings.HasPrefix(line, backPrefix) && st == readingFront:
			flushBlock()
			st = readingBack
			block = append(block, trimPrefix(line, backPrefix))
		case st != seeking:
			block = append(block, line)
		}
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	return strings.TrimPrefix(content, " ")
}
