package document

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cflux/backoffice/internal/module"
)

const (
	SearchTypeNode       = "node"
	SearchTypeAttachment = "attachment"
	SearchTypeVersion    = "version"
)

const defaultSearchLimit = 50

// SearchResult is one ranked hit across the three search pools.
type SearchResult struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	NodeID    string         `json:"nodeId"`
	Title     string         `json:"title"`
	Snippet   string         `json:"snippet"`
	Path      []string       `json:"path"`
	Relevance int            `json:"relevance"`
	Metadata  SearchMetadata `json:"metadata"`
}

type SearchMetadata struct {
	Type         string      `json:"type,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	CreatedBy    CreatorName `json:"createdBy"`
	AttachmentID string      `json:"attachmentId,omitempty"`
	Version      int         `json:"version,omitempty"`
	FileSize     int64       `json:"fileSize,omitempty"`
	MimeType     string      `json:"mimeType,omitempty"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Total   int            `json:"total"`
	Results []SearchResult `json:"results"`
}

type Suggestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NodeHit, AttachmentHit and VersionHit are the raw rows each pool query
// returns before access filtering and ranking.
type NodeHit struct {
	Node
	CreatedBy CreatorName
}

type AttachmentHit struct {
	ID               string
	NodeID           string
	NodeTitle        string
	OriginalFilename string
	Description      string
	Version          int
	FileSize         int64
	MimeType         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CreatedBy        CreatorName
}

type VersionHit struct {
	ID          string
	NodeID      string
	NodeTitle   string
	NodeDeleted bool
	Version     int
	Content     string
	CreatedAt   time.Time
	CreatedBy   CreatorName
}

// SearchRepository runs the capped pool queries.
type SearchRepository interface {
	SearchNodes(term string, limit int) ([]NodeHit, error)
	SearchAttachments(term string, limit int) ([]AttachmentHit, error)
	SearchVersions(term string, limit int) ([]VersionHit, error)
	SuggestTitles(term string, limit int) ([]Suggestion, error)
}

// PermissionChecker gates search on module-level permissions.
type PermissionChecker interface {
	CheckPermission(userID, moduleKey string, perm module.Permission) (bool, error)
}

// SearchService scans nodes, attachments and historical versions, filters
// hits through the node access resolver and ranks them by relevance.
type SearchService struct {
	repo   SearchRepository
	access *AccessResolver
	perms  PermissionChecker
	logger *slog.Logger
}

func NewSearchService(repo SearchRepository, access *AccessResolver, perms PermissionChecker, logger *slog.Logger) *SearchService {
	return &SearchService{repo: repo, access: access, perms: perms, logger: logger}
}

// Search runs the intranet search. kind narrows the pools to one of
// node/attachment/version; empty means all three.
func (s *SearchService) Search(userID, query string, limit int, kind string) (*SearchResponse, error) {
	if query == "" {
		return nil, ErrQueryRequired
	}

	hasRead, err := s.perms.CheckPermission(userID, ModuleKey, module.PermissionRead)
	if err != nil {
		return nil, err
	}
	if !hasRead {
		return nil, ErrNoReadAccess
	}

	term := strings.TrimSpace(query)
	if len(term) < 2 {
		return nil, ErrSearchTooShort
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	// The caller's group set is resolved once; every hit check below reuses it.
	groupIDs, err := s.access.repo.ActiveGroupIDs(userID)
	if err != nil {
		return nil, err
	}

	var results []SearchResult

	if kind == "" || kind == SearchTypeNode {
		hits, err := s.repo.SearchNodes(term, limit)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			ok, err := s.access.HasAccessWithGroups(groupIDs, hit.ID, false)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			path, _ := s.access.NodePath(hit.ID)
			content := ""
			if hit.Content != nil {
				content = *hit.Content
			}
			snippetSource := content
			if snippetSource == "" {
				snippetSource = hit.Title
			}

			results = append(results, SearchResult{
				ID:        hit.ID,
				Type:      SearchTypeNode,
				NodeID:    hit.ID,
				Title:     hit.Title,
				Snippet:   CreateSnippet(snippetSource, term, 0),
				Path:      path,
				Relevance: CalculateRelevance(term, hit.Title, content, SearchTypeNode),
				Metadata: SearchMetadata{
					Type:      hit.Node.Type,
					CreatedAt: hit.CreatedAt,
					UpdatedAt: hit.UpdatedAt,
					CreatedBy: hit.CreatedBy,
				},
			})
		}
	}

	if kind == "" || kind == SearchTypeAttachment {
		hits, err := s.repo.SearchAttachments(term, limit)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			ok, err := s.access.HasAccessWithGroups(groupIDs, hit.NodeID, false)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			path, _ := s.access.NodePath(hit.NodeID)
			searchable := hit.OriginalFilename + " " + hit.Description

			results = append(results, SearchResult{
				ID:        hit.ID,
				Type:      SearchTypeAttachment,
				NodeID:    hit.NodeID,
				Title:     hit.OriginalFilename,
				Snippet:   CreateSnippet(searchable, term, 0),
				Path:      append(path, hit.NodeTitle),
				Relevance: CalculateRelevance(term, hit.OriginalFilename, hit.Description, SearchTypeAttachment),
				Metadata: SearchMetadata{
					CreatedAt:    hit.CreatedAt,
					UpdatedAt:    hit.UpdatedAt,
					CreatedBy:    hit.CreatedBy,
					AttachmentID: hit.ID,
					Version:      hit.Version,
					FileSize:     hit.FileSize,
					MimeType:     hit.MimeType,
				},
			})
		}
	}

	if kind == "" || kind == SearchTypeVersion {
		hits, err := s.repo.SearchVersions(term, limit)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			if hit.NodeDeleted {
				continue
			}

			ok, err := s.access.HasAccessWithGroups(groupIDs, hit.NodeID, false)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			path, _ := s.access.NodePath(hit.NodeID)

			results = append(results, SearchResult{
				ID:        hit.ID,
				Type:      SearchTypeVersion,
				NodeID:    hit.NodeID,
				Title:     fmt.Sprintf("%s (Version %d)", hit.NodeTitle, hit.Version),
				Snippet:   CreateSnippet(hit.Content, term, 0),
				Path:      path,
				Relevance: CalculateRelevance(term, hit.NodeTitle, hit.Content, SearchTypeVersion),
				Metadata: SearchMetadata{
					CreatedAt: hit.CreatedAt,
					UpdatedAt: hit.CreatedAt,
					CreatedBy: hit.CreatedBy,
					Version:   hit.Version,
				},
			})
		}
	}

	// Highest relevance first; the final cut applies across the merged pool.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []SearchResult{}
	}

	return &SearchResponse{Query: term, Total: total, Results: results}, nil
}

// Suggestions performs title matching for autocomplete. Queries shorter than
// two characters return an empty list rather than an error.
func (s *SearchService) Suggestions(userID, query string, limit int) ([]Suggestion, error) {
	if query == "" {
		return []Suggestion{}, nil
	}

	hasRead, err := s.perms.CheckPermission(userID, ModuleKey, module.PermissionRead)
	if err != nil {
		return nil, err
	}
	if !hasRead {
		return nil, ErrNoReadAccess
	}

	term := strings.TrimSpace(query)
	if len(term) < 2 {
		return []Suggestion{}, nil
	}

	if limit <= 0 {
		limit = 10
	}

	groupIDs, err := s.access.repo.ActiveGroupIDs(userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.repo.SuggestTitles(term, limit)
	if err != nil {
		return nil, err
	}

	suggestions := []Suggestion{}
	for _, c := range candidates {
		ok, err := s.access.HasAccessWithGroups(groupIDs, c.ID, false)
		if err != nil {
			return nil, err
		}
		if ok {
			suggestions = append(suggestions, c)
		}
	}

	return suggestions, nil
}

// CalculateRelevance scores one hit: exact title match 100, title prefix 50,
// title contains 30, plus 5 per content occurrence, plus a type bonus.
func CalculateRelevance(term, title, content, kind string) int {
	lowerTerm := strings.ToLower(term)
	lowerTitle := strings.ToLower(title)
	lowerContent := strings.ToLower(content)

	score := 0

	switch {
	case lowerTitle == lowerTerm:
		score += 100
	case strings.HasPrefix(lowerTitle, lowerTerm):
		score += 50
	case strings.Contains(lowerTitle, lowerTerm):
		score += 30
	}

	score += strings.Count(lowerContent, lowerTerm) * 5

	switch kind {
	case SearchTypeNode:
		score += 10
	case SearchTypeAttachment:
		score += 5
	default:
		score += 2
	}

	return score
}

// CreateSnippet extracts context around the first occurrence of term (50
// chars before, 150 after), pads truncated ends with ellipses and wraps
// every occurrence in emphasis markers. maxLength 0 means the default 200.
func CreateSnippet(text, term string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 200
	}

	lowerText := strings.ToLower(text)
	lowerTerm := strings.ToLower(term)
	index := strings.Index(lowerText, lowerTerm)

	if index == -1 {
		if len(text) > maxLength {
			cut := maxLength
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			return text[:cut] + "..."
		}
		return text
	}

	start := index - 50
	if start < 0 {
		start = 0
	}
	// keep the window on rune boundaries so a multibyte character at
	// either edge is never cut in half
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := index + len(term) + 150
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	snippet := text[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet = snippet + "..."
	}

	re := regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(term) + `)`)
	return re.ReplaceAllString(snippet, "**$1**")
}
