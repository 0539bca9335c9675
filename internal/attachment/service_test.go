package attachment_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cflux/backoffice/internal"
	"github.com/cflux/backoffice/internal/attachment"
	"github.com/cflux/backoffice/internal/module"
)

func TestAttachmentService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Attachment Service Suite")
}

// mockAttachmentRepository implements attachment.Repository for testing
type mockAttachmentRepository struct {
	nodes       map[string]bool
	attachments map[string]*attachment.Attachment
	versions    map[string][]attachment.AttachmentVersion
	versionByID map[string]*attachment.AttachmentVersion
	createError error
}

func newMockAttachmentRepository() *mockAttachmentRepository {
	return &mockAttachmentRepository{
		nodes:       make(map[string]bool),
		attachments: make(map[string]*attachment.Attachment),
		versions:    make(map[string][]attachment.AttachmentVersion),
		versionByID: make(map[string]*attachment.AttachmentVersion),
	}
}

func (m *mockAttachmentRepository) NodeExists(nodeID string) (bool, error) {
	return m.nodes[nodeID], nil
}

func (m *mockAttachmentRepository) CreateAttachment(a *attachment.Attachment) error {
	if m.createError != nil {
		return m.createError
	}
	m.attachments[a.ID] = a
	return nil
}

func (m *mockAttachmentRepository) GetAttachmentByID(id string) (*attachment.Attachment, error) {
	a, ok := m.attachments[id]
	if !ok || a.DeletedAt != nil {
		return nil, attachment.ErrAttachmentNotFound
	}
	return a, nil
}

func (m *mockAttachmentRepository) ListByNode(nodeID string) ([]attachment.Attachment, error) {
	var result []attachment.Attachment
	for _, a := range m.attachments {
		if a.NodeID == nodeID && a.DeletedAt == nil {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAttachmentRepository) UpdateAttachment(a *attachment.Attachment) error {
	m.attachments[a.ID] = a
	return nil
}

func (m *mockAttachmentRepository) SoftDeleteAttachment(id string, deletedAt time.Time) error {
	a, ok := m.attachments[id]
	if !ok {
		return attachment.ErrAttachmentNotFound
	}
	a.DeletedAt = &deletedAt
	return nil
}

func (m *mockAttachmentRepository) CreateVersion(v *attachment.AttachmentVersion) error {
	m.versions[v.AttachmentID] = append(m.versions[v.AttachmentID], *v)
	m.versionByID[v.ID] = v
	return nil
}

func (m *mockAttachmentRepository) ListVersions(attachmentID string) ([]attachment.AttachmentVersion, error) {
	return m.versions[attachmentID], nil
}

func (m *mockAttachmentRepository) GetVersionByID(id string) (*attachment.AttachmentVersion, error) {
	v, ok := m.versionByID[id]
	if !ok {
		return nil, attachment.ErrVersionNotFound
	}
	return v, nil
}

// mockAccess fakes the node-level gate.
type mockAccess struct {
	read  bool
	write bool
	err   error
}

func (m *mockAccess) HasNodeAccess(userID, nodeID string) (bool, error) {
	return m.read, m.err
}

func (m *mockAccess) HasNodeWriteAccess(userID, nodeID string) (bool, error) {
	return m.write, m.err
}

// mockModulePerms fakes the module-level gate.
type mockModulePerms struct {
	read  bool
	write bool
}

func (m *mockModulePerms) CheckPermission(userID, moduleKey string, perm module.Permission) (bool, error) {
	if perm == module.PermissionWrite {
		return m.write, nil
	}
	return m.read, nil
}

func attachmentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("ArchiveName", func() {
	It("should prefix the filename with the version", func() {
		Expect(attachment.ArchiveName(3, "report.pdf")).To(Equal("v3-report.pdf"))
	})
})

var _ = Describe("LocalStore", func() {
	var store *attachment.LocalStore

	BeforeEach(func() {
		base := GinkgoT().TempDir()
		store = attachment.NewLocalStore(base, base+"/archive")
	})

	It("should save, open and remove a file", func() {
		relPath, size, err := store.Save("doc.txt", strings.NewReader("hello"))

		Expect(err).NotTo(HaveOccurred())
		Expect(size).To(Equal(int64(5)))
		Expect(store.Exists(relPath)).To(BeTrue())

		body, err := store.Open(relPath)
		Expect(err).NotTo(HaveOccurred())
		content, err := io.ReadAll(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(body.Close()).To(Succeed())
		Expect(string(content)).To(Equal("hello"))

		Expect(store.Remove(relPath)).To(Succeed())
		Expect(store.Exists(relPath)).To(BeFalse())
	})

	It("should move a file into the archive and reopen it by archive name", func() {
		relPath, _, err := store.Save("doc.txt", strings.NewReader("old content"))
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Archive(relPath, attachment.ArchiveName(1, "doc.txt"))).To(Succeed())
		Expect(store.Exists(relPath)).To(BeFalse())

		body, err := store.OpenArchived("v1-doc.txt")
		Expect(err).NotTo(HaveOccurred())
		content, err := io.ReadAll(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(body.Close()).To(Succeed())
		Expect(string(content)).To(Equal("old content"))
	})
})

var _ = Describe("AttachmentService", func() {
	var (
		repo    *mockAttachmentRepository
		store   *attachment.LocalStore
		access  *mockAccess
		perms   *mockModulePerms
		service *attachment.Service
		baseDir string
	)

	upload := func(name, content string) *attachment.Upload {
		return &attachment.Upload{
			OriginalFilename: name,
			MimeType:         "text/plain",
			Body:             strings.NewReader(content),
		}
	}

	countFiles := func(dir string) int {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return 0
		}
		n := 0
		for _, e := range entries {
			if !e.IsDir() {
				n++
			}
		}
		return n
	}

	BeforeEach(func() {
		repo = newMockAttachmentRepository()
		baseDir = GinkgoT().TempDir()
		store = attachment.NewLocalStore(baseDir, baseDir+"/archive")
		access = &mockAccess{read: true, write: true}
		perms = &mockModulePerms{read: true, write: true}
		service = attachment.NewService(repo, store, access, perms, attachmentLogger())

		repo.nodes["node-1"] = true
	})

	Describe("UploadAttachment", func() {
		It("should create the attachment at version 1 with an initial version row", func() {
			att, err := service.UploadAttachment("user-1", "node-1", upload("report.pdf", "pdf bytes"))

			Expect(err).NotTo(HaveOccurred())
			Expect(att.Version).To(Equal(1))
			Expect(att.OriginalFilename).To(Equal("report.pdf"))
			Expect(att.IsActive).To(BeTrue())

			versions, _ := repo.ListVersions(att.ID)
			Expect(versions).To(HaveLen(1))
			Expect(versions[0].Version).To(Equal(1))
			Expect(versions[0].ChangeReason).To(Equal("Initial upload"))
		})

		It("should remove the stored file when the permission check fails", func() {
			perms.write = false

			_, err := service.UploadAttachment("user-1", "node-1", upload("report.pdf", "pdf bytes"))

			Expect(err).To(HaveOccurred())
			Expect(countFiles(baseDir)).To(BeZero())
		})

		It("should remove the stored file when the node does not exist", func() {
			_, err := service.UploadAttachment("user-1", "ghost", upload("report.pdf", "pdf bytes"))

			Expect(err).To(HaveOccurred())
			Expect(countFiles(baseDir)).To(BeZero())
		})

		It("should remove the stored file when persistence fails", func() {
			repo.createError = errors.New("db down")

			_, err := service.UploadAttachment("user-1", "node-1", upload("report.pdf", "pdf bytes"))

			Expect(err).To(HaveOccurred())
			Expect(countFiles(baseDir)).To(BeZero())
		})

		It("should surface a failed store write as an internal error carrying the upload code", func() {
			up := &attachment.Upload{
				OriginalFilename: "report.pdf",
				MimeType:         "application/pdf",
				Body:             iotest.ErrReader(errors.New("disk full")),
			}

			_, err := service.UploadAttachment("user-1", "node-1", up)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			Expect(appErr.Code).To(Equal(internal.ErrCodeFileUpload))
			Expect(appErr.Error()).To(ContainSubstring("disk full"))
		})
	})

	Describe("UpdateAttachment", func() {
		var attID string

		BeforeEach(func() {
			att, err := service.UploadAttachment("user-1", "node-1", upload("report.pdf", "v1 bytes"))
			Expect(err).NotTo(HaveOccurred())
			attID = att.ID
		})

		It("should bump the version and keep one version row per revision", func() {
			updated, err := service.UpdateAttachment("user-1", attID, upload("report.pdf", "v2 bytes"), "")

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Version).To(Equal(2))

			versions, _ := repo.ListVersions(attID)
			Expect(versions).To(HaveLen(2))
			Expect(versions[1].Version).To(Equal(2))
			Expect(versions[1].ChangeReason).To(Equal("Updated to version 2"))
		})

		It("should archive the superseded file under the version prefix", func() {
			previous := repo.attachments[attID].Filename

			_, err := service.UpdateAttachment("user-1", attID, upload("report.pdf", "v2 bytes"), "fixed totals")
			Expect(err).NotTo(HaveOccurred())

			body, err := store.OpenArchived(attachment.ArchiveName(1, previous))
			Expect(err).NotTo(HaveOccurred())
			content, err := io.ReadAll(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body.Close()).To(Succeed())
			Expect(string(content)).To(Equal("v1 bytes"))
		})

		It("should record the supplied change reason", func() {
			_, err := service.UpdateAttachment("user-1", attID, upload("report.pdf", "v2"), "fixed totals")
			Expect(err).NotTo(HaveOccurred())

			versions, _ := repo.ListVersions(attID)
			Expect(versions[1].ChangeReason).To(Equal("fixed totals"))
		})

		It("should grow the version count monotonically across updates", func() {
			for i := 0; i < 3; i++ {
				_, err := service.UpdateAttachment("user-1", attID, upload("report.pdf", "next"), "")
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(repo.attachments[attID].Version).To(Equal(4))
			versions, _ := repo.ListVersions(attID)
			Expect(versions).To(HaveLen(4))
		})
	})

	Describe("DeleteAttachment", func() {
		It("should soft delete and keep the version history", func() {
			att, err := service.UploadAttachment("user-1", "node-1", upload("report.pdf", "bytes"))
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteAttachment("user-1", att.ID)).To(Succeed())

			_, err = service.DownloadAttachment("user-1", att.ID)
			Expect(err).To(HaveOccurred())
			Expect(repo.versions[att.ID]).To(HaveLen(1))
			Expect(store.Exists(repo.attachments[att.ID].FilePath)).To(BeTrue())
		})
	})

	Describe("DownloadAttachment", func() {
		It("should stream the current file", func() {
			att, err := service.UploadAttachment("user-1", "node-1", upload("report.pdf", "current bytes"))
			Expect(err).NotTo(HaveOccurred())

			dl, err := service.DownloadAttachment("user-1", att.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(dl.Filename).To(Equal("report.pdf"))
			content, err := io.ReadAll(dl.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(dl.Body.Close()).To(Succeed())
			Expect(string(content)).To(Equal("current bytes"))
		})

		It("should deny a caller without read access", func() {
			att, err := service.UploadAttachment("user-1", "node-1", upload("report.pdf", "bytes"))
			Expect(err).NotTo(HaveOccurred())
			perms.read = false

			_, err = service.DownloadAttachment("user-2", att.ID)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DownloadVersion", func() {
		It("should fall back to the archive for a superseded version", func() {
			att, err := service.UploadAttachment("user-1", "node-1", upload("report.pdf", "v1 bytes"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.UpdateAttachment("user-1", att.ID, upload("report.pdf", "v2 bytes"), "")
			Expect(err).NotTo(HaveOccurred())

			versions, _ := repo.ListVersions(att.ID)
			first := versions[0]

			dl, err := service.DownloadVersion("user-1", first.ID)

			Expect(err).NotTo(HaveOccurred())
			content, err := io.ReadAll(dl.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(dl.Body.Close()).To(Succeed())
			Expect(string(content)).To(Equal("v1 bytes"))
		})

		It("should return a missing-file error when neither path exists", func() {
			att, err := service.UploadAttachment("user-1", "node-1", upload("report.pdf", "bytes"))
			Expect(err).NotTo(HaveOccurred())
			versions, _ := repo.ListVersions(att.ID)
			Expect(store.Remove(versions[0].FilePath)).To(Succeed())

			_, err = service.DownloadVersion("user-1", versions[0].ID)

			Expect(err).To(MatchError(attachment.ErrFileMissing))
		})
	})

	Describe("UpdateMetadata", func() {
		It("should change the description without advancing the version", func() {
			att, err := service.UploadAttachment("user-1", "node-1", upload("report.pdf", "bytes"))
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.UpdateMetadata("user-1", att.ID, &attachment.UpdateMetadataDTO{Description: "quarterly report"})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Description).To(Equal("quarterly report"))
			Expect(updated.Version).To(Equal(1))
			Expect(repo.versions[att.ID]).To(HaveLen(1))
		})
	})
})
