package appupdate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockRelease struct {
	mock.Mock
}

func (m *MockRelease) Version() string {
	return m.Called().String(0)
}

func (m *MockRelease) AssetURL() string {
	return m.Called().String(0)
}

func (m *MockRelease) AssetName() string {
	return m.Called().String(0)
}

type MockUpdater struct {
	mock.Mock
}

func (m *MockUpdater) DetectLatest(ctx context.Context, repo string) (Release, bool, error) {
	args := m.Called(ctx, repo)
	release, _ := args.Get(0).(Release)
	return release, args.Bool(1), args.Error(2)
}

func (m *MockUpdater) UpdateTo(ctx context.Context, release Release, exePath string) error {
	return m.Called(ctx, release, exePath).Error(0)
}

func versionFileIn(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "latest_version.txt")
}

func TestDevBuildSkipsUpdateCheck(t *testing.T) {
	updater := &MockUpdater{}

	results := HandleSelfUpdate("dev", zap.NewNop(), versionFileIn(t), nil, updater)

	_, open := <-results
	assert.False(t, open)
	updater.AssertNotCalled(t, "DetectLatest", mock.Anything, mock.Anything)
}

func TestFetchRecordsLatestVersion(t *testing.T) {
	versionFile := versionFileIn(t)

	release := &MockRelease{}
	release.On("Version").Return("v1.2.0")

	updater := &MockUpdater{}
	updater.On("DetectLatest", mock.Anything, repoSlug).Return(release, true, nil)

	results := HandleSelfUpdate("v1.1.0", zap.NewNop(), versionFile, nil, updater)

	version, open := <-results
	require.True(t, open)
	assert.Equal(t, "v1.2.0", version)

	content, err := os.ReadFile(versionFile)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", string(content))
}

func TestRecordedNewerVersionAsksForConfirmation(t *testing.T) {
	versionFile := versionFileIn(t)
	require.NoError(t, os.WriteFile(versionFile, []byte("v2.0.0\n"), 0600))

	asked := ""
	confirm := func(latest string) bool {
		asked = latest
		return false
	}

	updater := &MockUpdater{}
	current := semver.MustParse("v1.0.0")
	updateToRecordedVersion(current, zap.NewNop(), versionFile, confirm, updater)

	assert.Equal(t, "v2.0.0", asked)
	updater.AssertNotCalled(t, "UpdateTo", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordedOlderVersionDoesNotPrompt(t *testing.T) {
	versionFile := versionFileIn(t)
	require.NoError(t, os.WriteFile(versionFile, []byte("v0.9.0"), 0600))

	confirm := func(string) bool {
		t.Fatal("confirm should not fire for an older recorded version")
		return false
	}

	current := semver.MustParse("v1.0.0")
	updateToRecordedVersion(current, zap.NewNop(), versionFile, confirm, &MockUpdater{})
}

func TestConfirmedUpdateApplies(t *testing.T) {
	versionFile := versionFileIn(t)
	require.NoError(t, os.WriteFile(versionFile, []byte("v2.0.0"), 0600))

	release := &MockRelease{}
	release.On("Version").Return("v2.0.0")

	updater := &MockUpdater{}
	updater.On("DetectLatest", mock.Anything, repoSlug).Return(release, true, nil)
	updater.On("UpdateTo", mock.Anything, release, mock.Anything).Return(nil)

	current := semver.MustParse("v1.0.0")
	updateToRecordedVersion(current, zap.NewNop(), versionFile, func(string) bool { return true }, updater)

	updater.AssertCalled(t, "UpdateTo", mock.Anything, release, mock.Anything)
}

func TestVersionStringParsing(t *testing.T) {
	cases := []struct {
		version   string
		shouldErr bool
	}{
		{"v0.25.10", false},
		{"0.25.10", false},
		{"v1.2.3", false},
		{"dev", true},
		{"", true},
	}

	for _, c := range cases {
		_, err := semver.NewVersion(c.version)
		if c.shouldErr {
			assert.Error(t, err, c.version)
		} else {
			assert.NoError(t, err, c.version)
		}
	}
}
