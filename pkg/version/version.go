package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// Valores padrão (sobrescritos por ldflags ou por build info)
var Version = "0.0.0-dev"
var Commit = ""
var BuildTime = ""

// ReleaseURL é o endpoint consultado para descobrir a última release publicada.
const ReleaseURL = "https://api.github.com/repos/diillson/azure-snapshot-sweeper-go/releases/latest"

const installHint = "go install github.com/diillson/azure-snapshot-sweeper-go/cmd/snapshot-sweeper@latest"

// buildInfo é o subconjunto das informações de VCS embutidas pelo Go que usamos.
type buildInfo struct {
	revision string
	time     string
	modified bool
	tag      string
}

func readBuildInfo() (buildInfo, bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return buildInfo{}, false
	}

	var info buildInfo
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.revision = s.Value
		case "vcs.time":
			info.time = s.Value
		case "vcs.modified":
			info.modified = strings.EqualFold(s.Value, "true")
		case "vcs.tag":
			info.tag = s.Value
		}
	}
	return info, true
}

// apply preenche Version/Commit/BuildTime a partir de info. Valores vindos de
// ldflags (versão diferente de dev) são preservados.
func (info buildInfo) apply() {
	if Version != "" && Version != "0.0.0-dev" {
		return
	}

	if Commit == "" && len(info.revision) >= 7 {
		Commit = info.revision[:7]
	}

	if BuildTime == "" && info.time != "" {
		if ts, err := time.Parse(time.RFC3339, info.time); err == nil {
			BuildTime = ts.UTC().Format("2006-01-02T15:04:05Z")
		}
	}

	if info.tag != "" {
		Version = strings.TrimPrefix(info.tag, "v")
		if info.modified {
			Version += "-dirty"
		}
	}
}

func init() {
	if info, ok := readBuildInfo(); ok {
		info.apply()
	}
}

// LatestRelease retorna a tag (sem o prefixo "v") da última release em url.
func LatestRelease(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("error decoding release: %w", err)
	}
	return strings.TrimPrefix(release.TagName, "v"), nil
}

// IsNewer compara versões x.y.z numericamente. Sufixos de pre-release
// ("-rc1", "-dirty") são ignorados.
func IsNewer(latest, current string) bool {
	l, c := versionParts(latest), versionParts(current)
	for i := 0; i < 3; i++ {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func versionParts(v string) [3]int {
	var parts [3]int
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	for i, p := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		parts[i] = n
	}
	return parts
}

// CheckLatestVersion verifica se uma versão mais recente está disponível.
func CheckLatestVersion(currentVersion string) {
	// Versões dev não são verificadas
	if strings.HasSuffix(currentVersion, "-dev") {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	latest, err := LatestRelease(ctx, http.DefaultClient, ReleaseURL)
	if err != nil || !IsNewer(latest, currentVersion) {
		return
	}

	pterm.Warning.Println(fmt.Sprintf("A new version of Azure Snapshot Sweeper is available: %s", latest))
	pterm.Info.Println("Please update using: " + installHint)
}

// FormatVersion retorna a versão formatada com commit e build time.
// Ex.: "1.2.3 (commit: abc1234, built at: 2026-10-01T10:20:30Z)"
func FormatVersion() string {
	ver := Version
	if ver == "" {
		ver = "0.0.0-dev"
	}

	commit := Commit
	if commit == "" {
		commit = "development"
	}

	if commit == "development" && BuildTime == "" {
		return fmt.Sprintf("%s (development)", ver)
	}
	if BuildTime != "" {
		return fmt.Sprintf("%s (commit: %s, built at: %s)", ver, commit, BuildTime)
	}
	return fmt.Sprintf("%s (commit: %s)", ver, commit)
}
