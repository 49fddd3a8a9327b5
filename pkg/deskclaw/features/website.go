// Package features – website.go opens and closes websites in the system
// browser.
package features

import (
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

var openDomainRe = regexp.MustCompile(`(?i)open\s+([a-zA-Z0-9.\-]+)`)

// ResolveWebsiteURL extracts a URL from an "open ..." utterance. Bare
// names like "google" become https://www.google.com.
func ResolveWebsiteURL(query string) (string, bool) {
	match := openDomainRe.FindStringSubmatch(query)
	if match == nil {
		return "", false
	}
	domain := strings.ToLower(match[1])
	switch {
	case !strings.Contains(domain, "."):
		return "https://www." + domain + ".com", true
	case strings.HasPrefix(domain, "http://"), strings.HasPrefix(domain, "https://"):
		return domain, true
	default:
		return "https://" + domain, true
	}
}

// OpenWebsite launches the default browser at url.
func OpenWebsite(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}

// CloseBrowser terminates common browser processes.
func CloseBrowser() error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("taskkill", "/f", "/im", "chrome.exe")
	default:
		cmd = exec.Command("pkill", "-f", "chrome|chromium|firefox")
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
