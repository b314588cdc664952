// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/awslabs/ar-sol-tools/analysis/storage"
	"github.com/awslabs/ar-sol-tools/internal/formatutil"
)

// WriteLayout writes the storage layout as a table with one row per variable. Variables whose name is in tainted
// are highlighted.
func WriteLayout(w io.Writer, layout *storage.Layout, tainted map[string]bool) error {
	if _, err := fmt.Fprintln(w, formatutil.Bold("storage layout of "+layout.Contract.Name)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "slot\toffset\tsize\tvariable\ttype")
	for _, e := range layout.Entries {
		name := e.Variable.CanonicalName()
		if tainted[name] {
			name = formatutil.Red(name)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", e.Location.Slot, e.Location.Offset, size(e.Type), name,
			e.Variable.Type)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, err := range layout.Errors {
		if _, err := fmt.Fprintln(w, formatutil.Yellow("[WARN] ")+err.Error()); err != nil {
			return err
		}
	}
	return nil
}

func size(t storage.Type) string {
	switch t.Kind {
	case storage.Value:
		return fmt.Sprintf("%dB", t.Size)
	default:
		return formatutil.Plural(int(t.Slots), "slot")
	}
}
