package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/lookaround/lookaround/internal/client"
)

// WritePlainReport writes the report in its line-oriented form:
//
//	Found 2 peers:
//	<Unknown> = 192.168.1.9:9040
//	02:00:5e:10:20:30 = 192.168.1.50 `desk`
func WritePlainReport(w io.Writer, reports []client.PeerReport) error {
	if _, err := fmt.Fprintf(w, "Found %d peers:\n", len(reports)); err != nil {
		return err
	}
	for _, r := range reports {
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return err
		}
	}
	return nil
}

// RenderReport renders the report with the same layout as the plain form,
// colored per field.
func RenderReport(reports []client.PeerReport) string {
	var b strings.Builder
	b.WriteString(ReportCountStyle.Render(fmt.Sprintf("Found %d peers:", len(reports))))
	for _, r := range reports {
		b.WriteString("\n")
		b.WriteString(RenderPeer(r))
	}
	return b.String()
}

// RenderPeer renders one report line
func RenderPeer(r client.PeerReport) string {
	if r.MAC == nil {
		return ReportUnknownStyle.Render("<Unknown>") + " = " + ReportAddrStyle.Render(r.Addr.String())
	}

	host := r.Addr.String()
	if ip := r.IP(); ip != nil {
		host = ip.String()
	}
	line := ReportMACStyle.Render(r.MAC.String()) + " = " + ReportAddrStyle.Render(host)
	if r.Nickname != nil {
		line += " " + ReportNicknameStyle.Render("`"+*r.Nickname+"`")
	}
	return line
}
