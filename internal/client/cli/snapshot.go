package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/openflag/internal/filex"
	"github.com/dmitrijs2005/openflag/internal/netx"
)

// download and writeFile are test seams.
var (
	download  = netx.DownloadPresignedURL
	writeFile = filex.WriteInSubdir
)

// Snapshot asks the server to export all flags and saves a copy of the
// export under ./snapshots.
func (a *App) Snapshot(ctx context.Context) error {
	snap, err := a.api.Snapshot(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Exported to %s\n", snap.Key)

	data, err := download(ctx, snap.URL)
	if err != nil {
		return a.report(fmt.Errorf("download snapshot: %w", err))
	}
	path, err := writeFile(snapshotDir, snap.Key, data)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Saved %s\n", path)
	return nil
}
