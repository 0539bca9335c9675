package postgres

import (
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cflux/backoffice/internal/document"
)

func TestDocumentRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Document Repository Suite")
}

type SQLiteUser struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
}

func (SQLiteUser) TableName() string {
	return "users"
}

type SQLiteUserGroup struct {
	ID       string `gorm:"primaryKey"`
	Name     string
	IsActive bool `gorm:"column:is_active"`
}

func (SQLiteUserGroup) TableName() string {
	return "user_groups"
}

type SQLiteMembership struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"column:user_id"`
	UserGroupID string `gorm:"column:user_group_id"`
}

func (SQLiteMembership) TableName() string {
	return "user_group_memberships"
}

type SQLiteAttachment struct {
	ID               string `gorm:"primaryKey"`
	NodeID           string `gorm:"column:document_node_id"`
	OriginalFilename string `gorm:"column:original_filename"`
	Description      string
	Version          int
	FileSize         int64  `gorm:"column:file_size"`
	MimeType         string `gorm:"column:mime_type"`
	UploadedByID     string `gorm:"column:uploaded_by_id"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

func (SQLiteAttachment) TableName() string {
	return "document_node_attachments"
}

var _ = Describe("DocumentRepository", func() {
	var (
		db   *gorm.DB
		repo *DocumentRepository
	)

	createNode := func(id string, parentID *string, title, content string) *document.Node {
		c := content
		node := &document.Node{
			ID: id, ParentID: parentID, Title: title, Content: &c,
			Type: document.NodeTypeDocument, CreatedByID: "u-1",
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
		Expect(repo.CreateNode(node)).To(Succeed())
		return node
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&document.Node{}, &document.Version{}, &document.GroupPermission{},
			&SQLiteUser{}, &SQLiteUserGroup{}, &SQLiteMembership{}, &SQLiteAttachment{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewDocumentRepository(db)

		Expect(db.Create(&SQLiteUser{ID: "u-1", Email: "erika@backoffice.local", FirstName: "Erika", LastName: "Muster"}).Error).To(Succeed())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("ActiveGroupIDs", func() {
		BeforeEach(func() {
			Expect(db.Create(&SQLiteUserGroup{ID: "grp-1", Name: "Staff", IsActive: true}).Error).To(Succeed())
			Expect(db.Create(&SQLiteUserGroup{ID: "grp-2", Name: "Alumni", IsActive: false}).Error).To(Succeed())
			Expect(db.Create(&SQLiteMembership{ID: "m-1", UserID: "u-1", UserGroupID: "grp-1"}).Error).To(Succeed())
			Expect(db.Create(&SQLiteMembership{ID: "m-2", UserID: "u-1", UserGroupID: "grp-2"}).Error).To(Succeed())
		})

		It("should return only memberships in active groups", func() {
			ids, err := repo.ActiveGroupIDs("u-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"grp-1"}))
		})

		It("should return an empty set for an unknown user", func() {
			ids, err := repo.ActiveGroupIDs("ghost")

			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())
		})
	})

	Describe("node CRUD", func() {
		It("should create and fetch a node", func() {
			createNode("n-1", nil, "Handbook", "welcome")

			node, err := repo.GetNodeByID("n-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(node.Title).To(Equal("Handbook"))
		})

		It("should hide soft-deleted nodes", func() {
			createNode("n-1", nil, "Handbook", "welcome")
			Expect(repo.SoftDeleteNode("n-1", "u-1")).To(Succeed())

			_, err := repo.GetNodeByID("n-1")
			Expect(err).To(MatchError(document.ErrNodeNotFound))

			nodes, err := repo.GetAllNodes()
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(BeEmpty())
		})

		It("should count siblings at the root and under a parent", func() {
			root := createNode("n-1", nil, "Root", "")
			createNode("n-2", &root.ID, "Child A", "")
			createNode("n-3", &root.ID, "Child B", "")

			rootCount, err := repo.CountSiblings(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rootCount).To(Equal(int64(1)))

			childCount, err := repo.CountSiblings(&root.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(childCount).To(Equal(int64(2)))
		})

		It("should order children by sort order", func() {
			root := createNode("n-1", nil, "Root", "")
			second := createNode("n-2", &root.ID, "Second", "")
			second.SortOrder = 2
			Expect(repo.UpdateNode(second)).To(Succeed())
			first := createNode("n-3", &root.ID, "First", "")
			first.SortOrder = 1
			Expect(repo.UpdateNode(first)).To(Succeed())

			children, err := repo.GetChildren(root.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(children[0].ID).To(Equal("n-3"))
			Expect(children[1].ID).To(Equal("n-2"))
		})
	})

	Describe("versions", func() {
		It("should report zero for a node without versions", func() {
			latest, err := repo.LatestVersionNumber("n-none")

			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(BeZero())
		})

		It("should track the highest version number", func() {
			createNode("n-1", nil, "Doc", "v1")
			for i := 1; i <= 3; i++ {
				Expect(repo.CreateVersion(&document.Version{
					ID: fmt.Sprintf("v-%d", i), NodeID: "n-1", Version: i,
					Title: "Doc", Content: "content", CreatedByID: "u-1", CreatedAt: time.Now(),
				})).To(Succeed())
			}

			latest, err := repo.LatestVersionNumber("n-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(Equal(3))

			versions, err := repo.ListVersions("n-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(HaveLen(3))
			Expect(versions[0].Version).To(Equal(3))
		})
	})

	Describe("SearchNodes", func() {
		BeforeEach(func() {
			createNode("n-1", nil, "Budget Plan", "numbers for 2026")
			createNode("n-2", nil, "Holidays", "the travel budget is fixed")
			deleted := createNode("n-3", nil, "Budget old", "stale")
			Expect(repo.SoftDeleteNode(deleted.ID, "u-1")).To(Succeed())
		})

		It("should match title or content case-insensitively", func() {
			hits, err := repo.SearchNodes("BUDGET", 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(2))
		})

		It("should join the creator's name", func() {
			hits, err := repo.SearchNodes("holidays", 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].CreatedBy.FirstName).To(Equal("Erika"))
		})

		It("should respect the limit", func() {
			hits, err := repo.SearchNodes("budget", 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
		})
	})

	Describe("SearchAttachments", func() {
		BeforeEach(func() {
			createNode("n-1", nil, "Reports", "")
			Expect(db.Create(&SQLiteAttachment{
				ID: "att-1", NodeID: "n-1", OriginalFilename: "budget.xlsx",
				Description: "quarterly figures", Version: 2, FileSize: 2048,
				MimeType: "application/vnd.ms-excel", UploadedByID: "u-1",
				CreatedAt: time.Now(), UpdatedAt: time.Now(),
			}).Error).To(Succeed())
		})

		It("should match filename and carry the node title", func() {
			hits, err := repo.SearchAttachments("budget", 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].NodeTitle).To(Equal("Reports"))
			Expect(hits[0].Version).To(Equal(2))
		})

		It("should match the description too", func() {
			hits, err := repo.SearchAttachments("quarterly", 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
		})
	})

	Describe("SearchVersions", func() {
		It("should flag versions whose node is deleted", func() {
			node := createNode("n-1", nil, "Doc", "current")
			Expect(repo.CreateVersion(&document.Version{
				ID: "v-1", NodeID: "n-1", Version: 1, Title: "Doc",
				Content: "historic budget numbers", CreatedByID: "u-1", CreatedAt: time.Now(),
			})).To(Succeed())

			hits, err := repo.SearchVersions("budget", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].NodeDeleted).To(BeFalse())

			Expect(repo.SoftDeleteNode(node.ID, "u-1")).To(Succeed())

			hits, err = repo.SearchVersions("budget", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].NodeDeleted).To(BeTrue())
		})
	})

	Describe("SuggestTitles", func() {
		It("should return matching titles alphabetically", func() {
			createNode("n-1", nil, "Budget Plan", "")
			createNode("n-2", nil, "Annual Budget", "")
			createNode("n-3", nil, "Holidays", "")

			suggestions, err := repo.SuggestTitles("budget", 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(suggestions).To(HaveLen(2))
			Expect(suggestions[0].Title).To(Equal("Annual Budget"))
		})
	})

	Describe("NodeTitleAndParent", func() {
		It("should return the parent pointer", func() {
			root := createNode("n-1", nil, "Root", "")
			createNode("n-2", &root.ID, "Child", "")

			title, parentID, err := repo.NodeTitleAndParent("n-2")

			Expect(err).NotTo(HaveOccurred())
			Expect(title).To(Equal("Child"))
			Expect(*parentID).To(Equal("n-1"))
		})

		It("should return not found for a deleted node", func() {
			createNode("n-1", nil, "Root", "")
			Expect(repo.SoftDeleteNode("n-1", "u-1")).To(Succeed())

			_, _, err := repo.NodeTitleAndParent("n-1")

			Expect(err).To(MatchError(document.ErrNodeNotFound))
		})
	})
})
