// Package appupdate keeps the installed binary current. It records the
// latest released version in the state directory on every run and, when a
// newer release was recorded by a previous run, offers to self-update
// before the composer starts.
package appupdate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"go.uber.org/zap"
)

const repoSlug = "draftpad/draftpad"

// Release is one published version of the binary.
type Release interface {
	Version() string
	AssetURL() string
	AssetName() string
}

// Updater detects and applies releases. The production implementation is
// backed by go-selfupdate's GitHub source.
type Updater interface {
	DetectLatest(ctx context.Context, repo string) (Release, bool, error)
	UpdateTo(ctx context.Context, release Release, exePath string) error
}

type githubRelease struct {
	release *selfupdate.Release
}

func (r githubRelease) Version() string   { return r.release.Version() }
func (r githubRelease) AssetURL() string  { return r.release.AssetURL }
func (r githubRelease) AssetName() string { return r.release.AssetName }

type githubUpdater struct {
	inner *selfupdate.Updater
}

// NewUpdater builds the GitHub-backed updater.
func NewUpdater() (Updater, error) {
	inner, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return nil, fmt.Errorf("initializing updater: %w", err)
	}
	return githubUpdater{inner: inner}, nil
}

func (u githubUpdater) DetectLatest(ctx context.Context, repo string) (Release, bool, error) {
	release, found, err := u.inner.DetectLatest(ctx, selfupdate.ParseSlug(repo))
	if release == nil {
		return nil, found, err
	}
	return githubRelease{release: release}, found, err
}

func (u githubUpdater) UpdateTo(ctx context.Context, release Release, exePath string) error {
	gh, ok := release.(githubRelease)
	if !ok {
		return fmt.Errorf("unexpected release type %T", release)
	}
	return u.inner.UpdateTo(ctx, gh.release, exePath)
}

// HandleSelfUpdate runs the two halves of the update flow: synchronously
// apply a previously recorded newer version (after confirm approves it),
// then fetch and record the current latest in the background. The returned
// channel yields the fetched version, if any, and is then closed.
func HandleSelfUpdate(
	currentVersion string,
	logger *zap.Logger,
	versionFile string,
	confirm func(latestVersion string) bool,
	updater Updater,
) chan string {
	resultChannel := make(chan string)

	currentSemVer, err := semver.NewVersion(strings.TrimSpace(currentVersion))
	if err != nil {
		logger.Debug("running a dev build, skipping self-update check")
		close(resultChannel)
		return resultChannel
	}

	updateToRecordedVersion(currentSemVer, logger, versionFile, confirm, updater)

	go fetchAndRecordLatestVersion(resultChannel, logger, versionFile, updater)

	return resultChannel
}

func readRecordedVersion(versionFile string) string {
	content, err := os.ReadFile(versionFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}

func updateToRecordedVersion(currentSemVer *semver.Version, logger *zap.Logger, versionFile string, confirm func(string) bool, updater Updater) {
	recorded := readRecordedVersion(versionFile)
	if recorded == "" {
		return
	}

	recordedSemVer, err := semver.NewVersion(recorded)
	if err != nil {
		logger.Error("failed to parse recorded version", zap.Error(err))
		return
	}
	if recordedSemVer.LessThanEqual(currentSemVer) {
		return
	}

	if confirm == nil || !confirm(recorded) {
		return
	}

	latest, found, err := updater.DetectLatest(context.Background(), repoSlug)
	if err != nil {
		logger.Warn("error occurred while detecting latest version", zap.Error(err))
		return
	}
	if !found {
		logger.Warn("latest version could not be detected")
		return
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		logger.Error("failed to get executable path to update", zap.Error(err))
		return
	}
	if err := updater.UpdateTo(context.Background(), latest, exe); err != nil {
		logger.Error("failed to update to latest version", zap.Error(err))
		return
	}

	logger.Info("successfully updated to latest version", zap.String("version", latest.Version()))
}

func fetchAndRecordLatestVersion(resultChannel chan string, logger *zap.Logger, versionFile string, updater Updater) {
	defer close(resultChannel)

	latest, found, err := updater.DetectLatest(context.Background(), repoSlug)
	if err != nil {
		logger.Warn("error occurred while getting latest version from remote", zap.Error(err))
		return
	}
	if !found {
		logger.Warn("latest version could not be found")
		return
	}

	version := strings.TrimSpace(latest.Version())
	if err := os.WriteFile(versionFile, []byte(version), 0600); err != nil {
		logger.Error("failed to save latest version", zap.Error(err))
		return
	}

	resultChannel <- latest.Version()
}
