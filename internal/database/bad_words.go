package database

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBadWords is always present in the filter, independent of any download.
var DefaultBadWords = []string{
	"sex", "porn", "gamble", "kill", "drogen",
	"nazi", "hitler", "idiot", "arschloch", "fick",
}

// SeedBadWords makes sure the default keywords are stored and, when url is set,
// adds every line of the list found there.
func (db *DB) SeedBadWords(ctx context.Context, url string, logger *zap.Logger) error {
	words := append([]string(nil), DefaultBadWords...)

	if url != "" {
		downloaded, err := downloadBadWords(ctx, url)
		if err != nil {
			// The defaults still apply
			logger.Warn("failed to download bad words list", zap.String("url", url), zap.Error(err))
		} else {
			words = append(words, downloaded...)
		}
	}

	var existing []string
	if err := db.SelectContext(ctx, &existing, "SELECT word FROM bad_words"); err != nil {
		return fmt.Errorf("failed to load bad words: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, w := range existing {
		known[w] = true
	}

	wordsAdded := 0
	err := db.WithTx(ctx, func(tx *Tx) error {
		for _, word := range words {
			word = strings.TrimSpace(strings.ToLower(word))
			if word == "" || known[word] {
				continue
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO bad_words (word) VALUES (?)", word); err != nil {
				return fmt.Errorf("failed to insert bad word: %w", err)
			}
			known[word] = true
			wordsAdded++
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("bad words filter ready", zap.Int("added", wordsAdded), zap.Int("total", len(known)))
	return nil
}

func downloadBadWords(ctx context.Context, url string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status code from bad words URL: %d", resp.StatusCode)
	}

	var words []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading bad words: %w", err)
	}
	return words, nil
}

// ContainsBadWord reports the first stored keyword that occurs anywhere in text,
// compared case-insensitively.
func (db *DB) ContainsBadWord(ctx context.Context, text string) (string, bool, error) {
	var words []string
	if err := db.SelectContext(ctx, &words, "SELECT word FROM bad_words"); err != nil {
		return "", false, fmt.Errorf("failed to check bad words: %w", err)
	}

	lower := strings.ToLower(text)
	for _, w := range words {
		if w != "" && strings.Contains(lower, w) {
			return w, true, nil
		}
	}
	return "", false, nil
}
