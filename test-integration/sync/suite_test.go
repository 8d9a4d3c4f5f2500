package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/go-logr/zapr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/articlesync/articlesync/internal/app"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/logging"
	pkgsync "github.com/articlesync/articlesync/internal/sync"
	"github.com/articlesync/articlesync/test-integration/sync/helpers"
)

var (
	ctx    context.Context
	cancel context.CancelFunc
)

func TestSyncIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sync Integration Suite")
}

var _ = BeforeSuite(func() {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(GinkgoWriter),
		zapcore.DebugLevel,
	)
	logging.SetLogger(zapr.NewLogger(zap.New(core)))

	ctx, cancel = context.WithCancel(context.TODO())
})

var _ = AfterSuite(func() {
	cancel()
})

// createTempDir creates a temporary directory for test files
func createTempDir(prefix string) string {
	dir, err := os.MkdirTemp("", prefix)
	Expect(err).NotTo(HaveOccurred())
	return dir
}

// cleanupTempDir removes a temporary directory
func cleanupTempDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		By(fmt.Sprintf("Warning: failed to cleanup temp dir %s: %v", dir, err))
	}
}

// runSync loads configPath and performs one run the way the run command does
func runSync(configPath string, opts ...app.SyncAppOptions) (*pkgsync.Result, error) {
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	Expect(err).NotTo(HaveOccurred())

	opts = append([]app.SyncAppOptions{
		app.WithConfig(cfg),
		app.WithSecretsProvider(helpers.SecretsProvider{}),
	}, opts...)
	syncApp, err := app.NewSyncApp(ctx, opts...)
	Expect(err).NotTo(HaveOccurred())
	defer syncApp.Close()

	return syncApp.Run(ctx)
}
