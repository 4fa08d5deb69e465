// Package cardfile parses line-oriented markdown card files into
// front/back/tags records for the sync process.
package cardfile

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Entry is one card parsed from a file: a front, a back, and an
// optional comma-separated tag line.
type Entry struct {
	Front string
	Back  string
	Tags  []string
}

const (
	frontPrefix = "Q:"
	backPrefix  = "A:"
	tagsPrefix  = "T:"
)

type state int

const (
	seeking state = iota
	readingFront
	readingBack
	readingTags
)

// ParseFile reads a file from the given path and extracts all entries.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from r and extracts all entries. A "Q:" line starts an
// entry, "A:" and "T:" switch the block, "---" separates entries, and
// plain lines continue the current block. Entries without a front are
// dropped.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current Entry
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch currentState {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		case readingTags:
			current.Tags = splitTags(content)
		}
		block = nil
	}

	finishEntry := func() {
		flushBlock()
		if current.Front != "" {
			entries = append(entries, current)
		}
		current = Entry{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "---" {
			finishEntry()
			continue
		}

		var next state
		var prefix string
		switch {
		case strings.HasPrefix(line, frontPrefix):
			next, prefix = readingFront, frontPrefix
		case strings.HasPrefix(line, backPrefix):
			next, prefix = readingBack, backPrefix
		case strings.HasPrefix(line, tagsPrefix):
			next, prefix = readingTags, tagsPrefix
		default:
			if currentState != seeking {
				block = append(block, line)
			}
			continue
		}

		flushBlock()
		if next == readingFront && currentState != seeking {
			// A new front always starts a new entry.
			finishEntry()
		}
		currentState = next
		block = append(block, strings.TrimPrefix(strings.TrimPrefix(line, prefix), " "))
	}

	finishEntry()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func splitTags(content string) []string {
	var tags []string
	for _, tag := range strings.Split(content, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
