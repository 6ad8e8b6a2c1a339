package pdfops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/pdfdoc"
)

// Split writes every page of in to its own file in outDir, named
// <stem>_page_0001.pdf and so on, and returns the paths in page order.
// Each file holds the page and everything it references. outDir is
// created if needed.
func Split(in, outDir string) ([]string, error) {
	doc, err := open("split", in)
	if err != nil {
		return nil, err
	}
	list, err := pages.List(doc)
	if err != nil {
		return nil, errs.WithPath(err, errs.CodeStructure, "split", in)
	}
	if len(list) == 0 {
		return nil, &errs.Error{Code: errs.CodeStructure, Op: "split", Path: in, Msg: "document has no pages"}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errs.E(errs.CodeIO, "split", outDir, err)
	}

	base := filepath.Base(in)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := func(n int) string {
		return filepath.Join(outDir, fmt.Sprintf("%s_page_%04d.pdf", stem, n))
	}
	for _, p := range list {
		if err := distinct("split", name(p.Number), in); err != nil {
			return nil, err
		}
	}
	paths := make([]string, 0, len(list))
	for _, p := range list {
		pages.PushDown(doc, p.Ref)

		single := pdfdoc.New()
		single.Version = doc.Version
		root := single.Add(core.Null{})
		c := pdfdoc.NewCopier(single, doc)
		reparent(c, doc, p.Ref, root)
		kid := c.CopyRef(p.Ref)
		single.Set(root, core.Dict{
			"Type":  core.Name("Pages"),
			"Kids":  core.Array{kid},
			"Count": core.Int(1),
		})
		single.Trailer["Root"] = single.Add(core.Dict{"Type": core.Name("Catalog"), "Pages": root})

		path := name(p.Number)
		if err := save("split", single, path, pdfdoc.SaveOptions{}); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// reparent makes the copier translate every Pages node above page to
// root, so the copied page hangs directly under the new tree and none of
// the old tree is carried along.
func reparent(c *pdfdoc.Copier, doc *pdfdoc.Document, page, root core.IndirectRef) {
	seen := map[core.IndirectRef]bool{page: true}
	dict, _ := doc.Dict(page)
	for dict != nil {
		ref, ok := dict.Get("Parent").(core.IndirectRef)
		if !ok || seen[ref] {
			return
		}
		seen[ref] = true
		c.Redirect(ref, root)
		dict, _ = doc.Dict(ref)
	}
}

// Merge concatenates the pages of ins, in order, into out. The first
// input's catalog and document information are kept, without its
// outlines. Attributes of the inputs' root Pages nodes are merged, the
// first value of each key winning. The result is cleaned up and written
// compressed.
func Merge(ins []string, out string) error {
	if len(ins) == 0 {
		return errs.Invalid("merge", "no input files")
	}
	if err := distinct("merge", out, ins...); err != nil {
		return err
	}
	merged := pdfdoc.New()
	root := merged.Add(core.Null{})
	tree := core.Dict{"Type": core.Name("Pages")}
	var kids core.Array

	for i, in := range ins {
		doc, err := open("merge", in)
		if err != nil {
			return err
		}
		_, srcRoot, err := pages.Root(doc)
		if err != nil {
			return errs.WithPath(err, errs.CodeStructure, "merge", in)
		}
		list, err := pages.List(doc)
		if err != nil {
			return errs.WithPath(err, errs.CodeStructure, "merge", in)
		}
		// identities from later inputs are allocated above earlier ones
		c := pdfdoc.NewCopier(merged, doc)
		for _, p := range list {
			pages.PushDown(doc, p.Ref)
			reparent(c, doc, p.Ref, root)
		}
		for _, p := range list {
			kids = append(kids, c.CopyRef(p.Ref))
		}
		for k, v := range srcRoot {
			switch k {
			case "Type", "Kids", "Count", "Parent":
				continue
			}
			if _, ok := tree[k]; !ok {
				tree[k] = c.Copy(v)
			}
		}
		if doc.Version > merged.Version {
			merged.Version = doc.Version
		}
		if i == 0 {
			cat, _ := doc.Catalog()
			catalog := core.Dict{}
			for k, v := range cat {
				if k == "Pages" || k == "Outlines" {
					continue
				}
				catalog[k] = c.Copy(v)
			}
			catalog["Type"] = core.Name("Catalog")
			catalog["Pages"] = root
			merged.Trailer["Root"] = merged.Add(catalog)
			if info, ok := doc.Trailer["Info"]; ok {
				merged.Trailer["Info"] = c.Copy(info)
			}
		}
	}

	tree["Kids"] = kids
	tree["Count"] = core.Int(len(kids))
	merged.Set(root, tree)
	merged.Cleanup()
	return save("merge", merged, out, pdfdoc.SaveOptions{Compress: true})
}
