package document_test

import (
	"strings"
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cflux/backoffice/internal/document"
)

var _ = Describe("CalculateRelevance", func() {
	It("should score an exact title match highest", func() {
		exact := document.CalculateRelevance("handbook", "Handbook", "", document.SearchTypeNode)
		prefix := document.CalculateRelevance("hand", "Handbook", "", document.SearchTypeNode)
		contains := document.CalculateRelevance("book", "Handbook", "", document.SearchTypeNode)

		Expect(exact).To(Equal(110))
		Expect(prefix).To(Equal(60))
		Expect(contains).To(Equal(40))
		Expect(exact).To(BeNumerically(">", prefix))
		Expect(prefix).To(BeNumerically(">", contains))
	})

	It("should match titles case insensitively", func() {
		Expect(document.CalculateRelevance("HANDBOOK", "handbook", "", document.SearchTypeNode)).To(Equal(110))
	})

	It("should add five points per content occurrence", func() {
		score := document.CalculateRelevance("leave", "Policies", "Sick leave and annual leave", document.SearchTypeNode)

		// No title match, two occurrences, node bonus.
		Expect(score).To(Equal(2*5 + 10))
	})

	It("should apply the per-type bonus", func() {
		node := document.CalculateRelevance("budget", "Budget", "", document.SearchTypeNode)
		attachment := document.CalculateRelevance("budget", "Budget", "", document.SearchTypeAttachment)
		version := document.CalculateRelevance("budget", "Budget", "", document.SearchTypeVersion)

		Expect(node - attachment).To(Equal(5))
		Expect(attachment - version).To(Equal(3))
	})
})

var _ = Describe("CreateSnippet", func() {
	It("should wrap every occurrence of the term in emphasis markers", func() {
		snippet := document.CreateSnippet("The budget report covers budget planning", "budget", 0)

		Expect(snippet).To(Equal("The **budget** report covers **budget** planning"))
	})

	It("should preserve the original casing inside the markers", func() {
		snippet := document.CreateSnippet("Budget review", "budget", 0)

		Expect(snippet).To(Equal("**Budget** review"))
	})

	It("should truncate text without a match", func() {
		long := ""
		for i := 0; i < 30; i++ {
			long += "0123456789"
		}

		snippet := document.CreateSnippet(long, "missing", 0)

		Expect(snippet).To(HaveLen(203))
		Expect(snippet).To(HaveSuffix("..."))
	})

	It("should pad truncated context with leading and trailing ellipses", func() {
		prefix := ""
		for i := 0; i < 10; i++ {
			prefix += "0123456789"
		}
		text := prefix + " budget " + prefix + prefix

		snippet := document.CreateSnippet(text, "budget", 0)

		Expect(snippet).To(HavePrefix("..."))
		Expect(snippet).To(HaveSuffix("..."))
		Expect(snippet).To(ContainSubstring("**budget**"))
	})

	It("should escape regex metacharacters in the term", func() {
		snippet := document.CreateSnippet("Q1 (draft) figures", "(draft)", 0)

		Expect(snippet).To(ContainSubstring("**(draft)**"))
	})

	It("should keep multibyte characters intact at the window edges", func() {
		text := strings.Repeat("€", 40) + "budget." + strings.Repeat("ö", 100)

		snippet := document.CreateSnippet(text, "budget", 0)

		Expect(utf8.ValidString(snippet)).To(BeTrue())
		Expect(snippet).To(ContainSubstring("**budget**"))
	})

	It("should truncate non-matching multibyte text on a rune boundary", func() {
		text := "x" + strings.Repeat("ä", 200)

		snippet := document.CreateSnippet(text, "missing", 0)

		Expect(utf8.ValidString(snippet)).To(BeTrue())
		Expect(snippet).To(HaveSuffix("..."))
	})
})

var _ = Describe("SearchService", func() {
	var (
		repo    *mockDocumentRepository
		perms   *mockPermissionChecker
		service *document.SearchService
	)

	addNodeHit := func(id, title, content string) {
		c := content
		repo.nodeHits = append(repo.nodeHits, document.NodeHit{
			Node: document.Node{ID: id, Title: title, Content: &c, Type: document.NodeTypeDocument},
		})
		repo.nodes[id] = &document.Node{ID: id, Title: title, Content: &c, Type: document.NodeTypeDocument}
	}

	BeforeEach(func() {
		repo = newMockDocumentRepository()
		perms = newMockPermissionChecker()
		perms.read["user-1"] = true

		resolver := document.NewAccessResolver(repo, testLogger())
		service = document.NewSearchService(repo, resolver, perms, testLogger())
	})

	Describe("Search", func() {
		Context("when the query is missing or too short", func() {
			It("should reject an empty query", func() {
				_, err := service.Search("user-1", "", 0, "")

				Expect(err).To(MatchError(document.ErrQueryRequired))
			})

			It("should reject a single-character query", func() {
				_, err := service.Search("user-1", "a", 0, "")

				Expect(err).To(MatchError(document.ErrSearchTooShort))
			})
		})

		Context("when the user lacks intranet read permission", func() {
			It("should return a forbidden error", func() {
				_, err := service.Search("stranger", "handbook", 0, "")

				Expect(err).To(MatchError(document.ErrNoReadAccess))
			})
		})

		Context("when hits span the three pools", func() {
			BeforeEach(func() {
				addNodeHit("node-1", "Budget", "annual budget")
				repo.attachmentHits = []document.AttachmentHit{{
					ID: "att-1", NodeID: "node-1", NodeTitle: "Budget",
					OriginalFilename: "Budget", Description: "spreadsheet",
					FileSize: 1024, MimeType: "text/csv", Version: 1,
					CreatedAt: time.Now(), UpdatedAt: time.Now(),
				}}
				repo.versionHits = []document.VersionHit{{
					ID: "ver-1", NodeID: "node-1", NodeTitle: "Budget",
					Version: 2, Content: "draft figures", CreatedAt: time.Now(),
				}}
			})

			It("should rank node above attachment above version for equal matches", func() {
				resp, err := service.Search("user-1", "budget", 0, "")

				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Total).To(Equal(3))
				Expect(resp.Results[0].Type).To(Equal(document.SearchTypeNode))
				Expect(resp.Results[1].Type).To(Equal(document.SearchTypeAttachment))
				Expect(resp.Results[2].Type).To(Equal(document.SearchTypeVersion))
			})

			It("should narrow the pools when a kind is given", func() {
				resp, err := service.Search("user-1", "budget", 0, document.SearchTypeAttachment)

				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Results).To(HaveLen(1))
				Expect(resp.Results[0].Type).To(Equal(document.SearchTypeAttachment))
				Expect(resp.Results[0].Metadata.AttachmentID).To(Equal("att-1"))
			})

			It("should drop version hits whose node is deleted", func() {
				repo.versionHits[0].NodeDeleted = true

				resp, err := service.Search("user-1", "budget", 0, document.SearchTypeVersion)

				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Results).To(BeEmpty())
			})
		})

		Context("when the caller cannot read the hit's node", func() {
			It("should filter the hit out", func() {
				addNodeHit("node-closed", "Budget", "secret budget")
				repo.permissions["node-closed"] = []document.GroupPermission{
					{ID: "p-1", NodeID: "node-closed", UserGroupID: "grp-x", PermissionLevel: document.PermissionRead},
				}

				resp, err := service.Search("user-1", "budget", 0, "")

				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Results).To(BeEmpty())
			})
		})

		Context("when more hits match than the limit", func() {
			It("should report the full total but cap the results", func() {
				addNodeHit("node-1", "Budget 2025", "budget")
				addNodeHit("node-2", "Budget 2026", "budget")
				addNodeHit("node-3", "Budget archive", "budget")

				resp, err := service.Search("user-1", "budget", 2, "")

				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Total).To(Equal(3))
				Expect(resp.Results).To(HaveLen(2))
			})
		})

		It("should highlight the term in snippets", func() {
			addNodeHit("node-1", "Policies", "the travel budget covers flights")

			resp, err := service.Search("user-1", "budget", 0, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results[0].Snippet).To(ContainSubstring("**budget**"))
		})
	})

	Describe("Suggestions", func() {
		BeforeEach(func() {
			repo.suggestions = []document.Suggestion{
				{ID: "node-1", Title: "Budget 2025"},
				{ID: "node-closed", Title: "Budget secret"},
			}
			repo.permissions["node-closed"] = []document.GroupPermission{
				{ID: "p-1", NodeID: "node-closed", UserGroupID: "grp-x", PermissionLevel: document.PermissionRead},
			}
		})

		It("should return only accessible titles", func() {
			result, err := service.Suggestions("user-1", "budg", 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0].ID).To(Equal("node-1"))
		})

		It("should return an empty list for a short query", func() {
			result, err := service.Suggestions("user-1", "b", 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeEmpty())
		})
	})
})
