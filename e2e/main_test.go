package e2e

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

const (
	adminUser     = "testuser"
	adminPassword = "testpass123"
)

var (
	appURL string
)

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

func runTestMain(m *testing.M) int {
	root, err := projectRoot()
	if err != nil {
		fmt.Println(err)
		return 1
	}

	workDir, err := os.MkdirTemp("", "gas-tracker-e2e")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(workDir)

	binPath := filepath.Join(workDir, "gas-tracker")
	build := exec.Command("go", "build", "-o", binPath, "./cmd/server")
	build.Dir = root
	if output, err := build.CombinedOutput(); err != nil {
		fmt.Printf("Failed to build app: %v\n%s\n", err, output)
		return 1
	}

	port, err := freePort()
	if err != nil {
		fmt.Printf("Failed to find a free port: %v\n", err)
		return 1
	}
	appURL = "http://localhost:" + strconv.Itoa(port)

	// The server runs from the scratch dir so no local .env or
	// gas-tracker.toml leaks into the run; assets are passed explicitly.
	serverCmd := exec.Command(binPath)
	serverCmd.Dir = workDir
	serverCmd.Env = append(os.Environ(),
		"CONFIG_FILE=",
		"PORT="+strconv.Itoa(port),
		"DB_PATH="+filepath.Join(workDir, "e2e.db"),
		"TEMPLATE_DIR="+filepath.Join(root, "web", "templates"),
		"STATIC_DIR="+filepath.Join(root, "web", "static"),
		"SECURE_COOKIE=false",
		"LOG_LEVEL=warn",
		"ADMIN_USER="+adminUser,
		"ADMIN_PASSWORD="+adminPassword,
	)
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr

	if err := serverCmd.Start(); err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		return 1
	}
	defer func() {
		if err := serverCmd.Process.Kill(); err != nil {
			fmt.Printf("Failed to kill server: %v\n", err)
		}
		_ = serverCmd.Wait()
	}()

	if err := waitForAdminLogin(10 * time.Second); err != nil {
		fmt.Printf("Server not ready: %v\n", err)
		return 1
	}

	return m.Run()
}

// projectRoot finds the module root whether tests run from e2e/ or the root.
func projectRoot() (string, error) {
	for _, dir := range []string{"..", "."} {
		if _, err := os.Stat(filepath.Join(dir, "cmd", "server")); err == nil {
			return filepath.Abs(dir)
		}
	}
	return "", fmt.Errorf("could not find cmd/server to build")
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// waitForAdminLogin polls until the bootstrapped admin can log in. A 302 to
// /cars proves the listener is up, migrations ran and the admin exists.
func waitForAdminLogin(timeout time.Duration) error {
	client := &http.Client{
		Timeout: time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	form := url.Values{"username": {adminUser}, "password": {adminPassword}}

	deadline := time.Now().Add(timeout)
	lastErr := fmt.Errorf("no response")
	for time.Now().Before(deadline) {
		resp, err := client.PostForm(appURL+"/login", form)
		if err != nil {
			lastErr = err
			time.Sleep(100 * time.Millisecond)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusFound && resp.Header.Get("Location") == "/cars" {
			return nil
		}
		lastErr = fmt.Errorf("login returned %d", resp.StatusCode)
		time.Sleep(100 * time.Millisecond)
	}
	return lastErr
}
