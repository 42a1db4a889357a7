package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// queryPunctuation is the set of punctuation characters treated as
// whitespace when tokenizing free-text name searches.
const queryPunctuation = `,.<>{}[]"':;!@#$%^&*()-+=~`

// tagSpecial is the set of characters that must be escaped inside a
// RediSearch tag filter.
const tagSpecial = `,.<>{}[]"':;!@#$%^&*()-+=~|/\ `

// CleanQuery replaces query punctuation with spaces and collapses the
// result to space-separated tokens.
func CleanQuery(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(queryPunctuation, r) {
			return ' '
		}
		return r
	}, query)
	return strings.Join(strings.Fields(cleaned), " ")
}

// escapeTag backslash-escapes a value for use inside @field:{...}.
func escapeTag(value string) string {
	var b strings.Builder
	for _, r := range value {
		if strings.ContainsRune(tagSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SearchChromosomeNames fuzzy-matches chromosome names against the
// query. An empty result is not an error.
func (s *Store) SearchChromosomeNames(ctx context.Context, query string) ([]string, error) {
	return s.searchNames(ctx, ChromosomeIndex, query)
}

// SearchGeneNames fuzzy-matches gene names against the query. An empty
// result is not an error.
func (s *Store) SearchGeneNames(ctx context.Context, query string) ([]string, error) {
	return s.searchNames(ctx, GeneIndex, query)
}

func (s *Store) searchNames(ctx context.Context, index, query string) ([]string, error) {
	cleaned := CleanQuery(query)
	if cleaned == "" {
		return nil, nil
	}
	docs, err := s.searchAll(ctx, index, cleaned, &redis.FTSearchOptions{
		InFields: []interface{}{"name"},
		Return:   []redis.FTSearchReturn{{FieldName: "name"}},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.Fields["name"])
	}
	return names, nil
}

// FamilyPositions returns the (chromosome, index) position of every gene
// whose family tag matches. If targets is non-empty the search is
// restricted to those chromosomes.
func (s *Store) FamilyPositions(ctx context.Context, family string, targets []string) ([]GenePosition, error) {
	query := fmt.Sprintf("@family:{%s}", escapeTag(family))
	if len(targets) > 0 {
		escaped := make([]string, len(targets))
		for i, target := range targets {
			escaped[i] = escapeTag(target)
		}
		query += fmt.Sprintf(" @chromosome:{%s}", strings.Join(escaped, "|"))
	}
	docs, err := s.searchAll(ctx, GeneIndex, query, &redis.FTSearchOptions{
		Return: []redis.FTSearchReturn{
			{FieldName: "chromosome"},
			{FieldName: "index"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search family %q: %w", family, err)
	}
	positions := make([]GenePosition, 0, len(docs))
	for _, doc := range docs {
		idx, err := strconv.Atoi(doc.Fields["index"])
		if err != nil {
			return nil, fmt.Errorf("gene %q has malformed index %q: %w", doc.ID, doc.Fields["index"], err)
		}
		positions = append(positions, GenePosition{
			Chromosome: doc.Fields["chromosome"],
			Index:      idx,
		})
	}
	return positions, nil
}

// searchAll runs a count query followed by a fetch of every match, since
// RediSearch pages results by default.
func (s *Store) searchAll(ctx context.Context, index, query string, opts *redis.FTSearchOptions) ([]redis.Document, error) {
	count, err := s.rdb.FTSearchWithArgs(ctx, index, query, &redis.FTSearchOptions{
		CountOnly: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	total := int(count.Total)
	if total == 0 {
		return nil, nil
	}
	opts.LimitOffset = 0
	opts.Limit = total
	result, err := s.rdb.FTSearchWithArgs(ctx, index, query, opts).Result()
	if err != nil {
		return nil, err
	}
	return result.Docs, nil
}
