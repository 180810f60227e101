// strand-demo exercises the cursor API end to end: it builds a document,
// applies a scripted sequence of edits including a range move, and dumps the
// resulting chain state.
package main

import (
	"fmt"
	"os"

	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"

	strand "github.com/strandcrdt/strand"
)

func main() {
	root := newRoot()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	var verbose bool
	var dump bool

	root := &cobra.Command{
		Use:   "strand-demo",
		Short: "Scripted walkthrough of the strand cursor API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := strand.Options{}
			if verbose {
				opts.Logger = strand.DefaultLogger()
			}
			return run(opts, dump)
		},
	}
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log chain mutations")
	root.Flags().BoolVarP(&dump, "dump", "d", false, "dump cursor state after the script")
	return root
}

func run(opts strand.Options, dump bool) error {
	doc := strand.NewDoc(opts)
	txn, err := doc.Transact()
	if err != nil {
		return err
	}
	branch := doc.Branch("demo")

	// Build "Hello, strand!" then carve it up.
	cur := branch.Cursor()
	if err := cur.InsertContents(txn, strand.NewString("Hello, world!")); err != nil {
		return err
	}
	if err := cur.MoveTo(txn, 7); err != nil {
		return err
	}
	if err := cur.Delete(txn, 5); err != nil {
		return err
	}
	if err := cur.InsertContents(txn, strand.NewString("strand")); err != nil {
		return err
	}

	// Relocate "strand" to the front.
	start, err := strand.RelativePositionAt(txn, branch, 7, strand.AssocAfter)
	if err != nil {
		return err
	}
	end, err := strand.RelativePositionAt(txn, branch, 13, strand.AssocBefore)
	if err != nil {
		return err
	}
	head := branch.Cursor()
	if err := head.InsertMove(txn, start, end); err != nil {
		return err
	}

	reader := branch.Cursor()
	values, err := reader.Values(txn).Collect()
	if err != nil {
		return err
	}
	var text string
	for _, v := range values {
		if s, ok := v.(string); ok {
			text += s
		}
	}
	fmt.Printf("doc %s (client %d)\n", doc.GUID(), doc.ClientID())
	fmt.Printf("content (%d units): %q\n", branch.Len(), text)

	if dump {
		litter.Config.HidePrivateFields = false
		litter.Dump(reader)
	}
	return txn.Commit()
}
