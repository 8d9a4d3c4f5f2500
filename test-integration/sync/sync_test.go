package integration

import (
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/articlesync/articlesync/internal/app"
	"github.com/articlesync/articlesync/internal/blob"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/status"
	pkgsync "github.com/articlesync/articlesync/internal/sync"
	"github.com/articlesync/articlesync/test-integration/sync/helpers"
)

var _ = Describe("Incremental Sync", Label("sync"), func() {
	var (
		tempDir    string
		storageDir string
		cms        *helpers.FakeContentful
		notion     *helpers.FakeNotion
		configPath string
		extraYAML  string
	)

	loadStatus := func() *status.SyncStatus {
		persistence := status.NewBlobStatusPersistence(blob.NewFileStore(storageDir), config.DefaultStatusKey)
		s, err := persistence.LoadStatus(ctx)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		tempDir = createTempDir("sync-test-")
		storageDir = filepath.Join(tempDir, "storage")
		extraYAML = ""

		cms = helpers.NewFakeContentful("c", "b", "a")
		notion = helpers.NewFakeNotion()
	})

	JustBeforeEach(func() {
		var err error
		configPath, err = helpers.WriteConfigYAML(tempDir, cms.URL, notion.URL, storageDir, extraYAML)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cms.Close()
		notion.Close()
		cleanupTempDir(tempDir)
	})

	Context("Repeated runs", func() {
		It("should publish every article oldest first and nothing on the next run", func() {
			result, err := runSync(configPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Published).To(Equal(3))
			Expect(notion.Published()).To(Equal(helpers.ArticleURLs("a", "b", "c")))
			Expect(cms.AuthorCalls()).To(Equal(1))

			firstStatus := loadStatus()
			Expect(firstStatus.Phase).To(Equal(status.SyncPhaseComplete))
			Expect(firstStatus.Published).To(Equal(3))
			Expect(firstStatus.ArticleCount).To(Equal(3))

			By("running again without upstream changes")
			result, err = runSync(configPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Published).To(BeZero())
			Expect(result.Hash).To(Equal(firstStatus.LastSyncHash))
			Expect(notion.Published()).To(HaveLen(3))
			Expect(cms.AuthorCalls()).To(Equal(1), "author profiles are memoized in the cache")

			secondStatus := loadStatus()
			Expect(secondStatus.Phase).To(Equal(status.SyncPhaseComplete))
			Expect(secondStatus.Message).To(ContainSubstring("no new articles"))
		})

		It("should publish only the articles added since the last run", func() {
			_, err := runSync(configPath)
			Expect(err).NotTo(HaveOccurred())

			cms.Publish("e", "d")
			listCalls := cms.ListCalls()

			result, err := runSync(configPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Published).To(Equal(2))
			Expect(notion.Published()).To(Equal(helpers.ArticleURLs("a", "b", "c", "d", "e")))
			Expect(cms.ListCalls() - listCalls).To(Equal(3), "exhaustive mode reads every page")

			c, err := helpers.LoadCache(ctx, storageDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Articles).To(HaveLen(5))
			Expect(c.ListPublished).To(HaveLen(5))
		})
	})

	Context("Early-stop planning", func() {
		BeforeEach(func() {
			extraYAML = "planner:\n  mode: early-stop\n"
		})

		It("should stop listing at the first known article", func() {
			_, err := runSync(configPath)
			Expect(err).NotTo(HaveOccurred())

			cms.Publish("d")
			listCalls := cms.ListCalls()

			result, err := runSync(configPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Published).To(Equal(1))
			Expect(notion.Published()).To(Equal(helpers.ArticleURLs("a", "b", "c", "d")))
			Expect(cms.ListCalls() - listCalls).To(Equal(1))
		})
	})

	Context("Publish failure", func() {
		It("should keep the articles published before the failure and resume on the next run", func() {
			notion.FailFor(helpers.ArticleURL("b"))

			result, err := runSync(configPath)
			Expect(err).To(HaveOccurred())
			var syncErr *pkgsync.Error
			Expect(errors.As(err, &syncErr)).To(BeTrue())
			Expect(syncErr.Stage).To(Equal(pkgsync.StagePublish))
			Expect(result.Published).To(Equal(1))
			Expect(notion.Published()).To(Equal(helpers.ArticleURLs("a")))

			c, err := helpers.LoadCache(ctx, storageDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.HasArticle(helpers.ArticleURL("a"))).To(BeTrue())
			Expect(c.HasArticle(helpers.ArticleURL("b"))).To(BeFalse())

			failed := loadStatus()
			Expect(failed.Phase).To(Equal(status.SyncPhaseFailed))
			Expect(failed.FailedStage).To(Equal(string(pkgsync.StagePublish)))
			Expect(failed.AttemptCount).To(Equal(1))

			By("retrying once the destination recovers")
			notion.FailFor("")
			result, err = runSync(configPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Published).To(Equal(2))
			Expect(notion.Published()).To(Equal(helpers.ArticleURLs("a", "b", "c")))

			recovered := loadStatus()
			Expect(recovered.Phase).To(Equal(status.SyncPhaseComplete))
			Expect(recovered.AttemptCount).To(BeZero())
		})
	})

	Context("Legacy cache", func() {
		It("should migrate the version 1 layout and skip the articles it records", func() {
			Expect(helpers.WriteLegacyCache(ctx, storageDir, "a", "b")).To(Succeed())

			result, err := runSync(configPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Published).To(Equal(1))
			Expect(notion.Published()).To(Equal(helpers.ArticleURLs("c")))

			c, err := helpers.LoadCache(ctx, storageDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Articles).To(HaveLen(3))
			Expect(c.ListPublished).To(ConsistOf(helpers.ArticleURLs("a", "b", "c")))
		})
	})

	Context("Dry run", func() {
		It("should plan without publishing or persisting", func() {
			result, err := runSync(configPath, app.WithDryRun(true))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.DryRun).To(BeTrue())
			Expect(result.Planned).To(HaveLen(3))
			Expect(notion.Published()).To(BeEmpty())

			c, err := helpers.LoadCache(ctx, storageDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Articles).To(BeEmpty())
			Expect(loadStatus().Phase).To(BeEmpty())
		})
	})
})
