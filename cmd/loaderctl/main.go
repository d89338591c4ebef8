// Command loaderctl is a one-shot CLI against a running loader's status
// API: print the current session status, or copy the last verified
// firmware digest or software part number to the clipboard. Grounded on
// the teacher's internal/cli/ui/ui.go clipboard-copy commands
// (clipboard.WriteAll on a selected value, success/failure logged rather
// than treated as fatal) and cmd/cli/main.go's /tmp/hasher-host.port
// discovery convention.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"arincloader/internal/session"
)

const portFile = "/tmp/arincloader.port"

var (
	copyDigest = flag.Bool("copy-digest", false, "copy the last verified firmware digest to the clipboard")
	copyPN     = flag.Bool("copy-pn", false, "copy the last accepted software part number to the clipboard")
	addrFlag   = flag.String("addr", "", "status API address (overrides port-file discovery)")
)

func discoverAddr() (string, error) {
	if *addrFlag != "" {
		return *addrFlag, nil
	}
	raw, err := os.ReadFile(portFile)
	if err != nil {
		return "", fmt.Errorf("loaderctl: could not discover running loader (%w); pass -addr", err)
	}
	port := strings.TrimSpace(string(raw))
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("loaderctl: malformed port file %s: %q", portFile, raw)
	}
	return "127.0.0.1:" + port, nil
}

func fetchStatus(addr string) (session.StatusSnapshot, error) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/status")
	if err != nil {
		return session.StatusSnapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return session.StatusSnapshot{}, fmt.Errorf("loaderctl: status request failed: %s", resp.Status)
	}

	var snap session.StatusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return session.StatusSnapshot{}, err
	}
	return snap, nil
}

func main() {
	flag.Parse()

	addr, err := discoverAddr()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	snap, err := fetchStatus(addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("state:               %s\n", snap.State)
	fmt.Printf("authenticated:       %v\n", snap.Authenticated)
	fmt.Printf("upload_failure_count: %d\n", snap.UploadFailureCount)
	fmt.Printf("last_event:          %s\n", snap.LastEvent)
	fmt.Printf("last_updated:        %s\n", snap.LastUpdated.Format(time.RFC3339))
	if snap.LastPartNumber != "" {
		fmt.Printf("last_part_number:    %s\n", snap.LastPartNumber)
	}
	if snap.LastDigestHex != "" {
		fmt.Printf("last_digest:         %s\n", snap.LastDigestHex)
	}

	if *copyDigest {
		if snap.LastDigestHex == "" {
			fmt.Fprintln(os.Stderr, "loaderctl: no verified digest yet")
			os.Exit(1)
		}
		if err := clipboard.WriteAll(snap.LastDigestHex); err != nil {
			fmt.Fprintf(os.Stderr, "loaderctl: failed to copy digest to clipboard: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("digest copied to clipboard")
	}

	if *copyPN {
		if snap.LastPartNumber == "" {
			fmt.Fprintln(os.Stderr, "loaderctl: no accepted part number yet")
			os.Exit(1)
		}
		if err := clipboard.WriteAll(snap.LastPartNumber); err != nil {
			fmt.Fprintf(os.Stderr, "loaderctl: failed to copy part number to clipboard: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("part number copied to clipboard")
	}
}
