package pdfops

import (
	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/pdfdoc"
)

// ProtectOptions configures Protect.
type ProtectOptions struct {
	Owner string
	User  string

	AllowPrint bool // also grants high-quality printing
	AllowCopy  bool // also grants extraction for accessibility
}

// Protect encrypts in with AES-128 (security handler revision 4).
func Protect(in, out string, opts ProtectOptions) error {
	if err := distinct("protect", out, in); err != nil {
		return err
	}
	if opts.Owner == "" && opts.User == "" {
		return errs.Invalid("protect", "a user or owner password is required")
	}
	doc, err := open("protect", in)
	if err != nil {
		return err
	}
	enc := &pdfdoc.Encryption{
		UserPassword:  opts.User,
		OwnerPassword: opts.Owner,
		Permissions:   pdfdoc.Permissions(opts.AllowPrint, opts.AllowCopy),
	}
	return save("protect", doc, out, pdfdoc.SaveOptions{Encrypt: enc})
}

// Unlock writes a decrypted copy of in. password may be the user or the
// owner password. An unencrypted input is written out unchanged in
// content.
func Unlock(in, out, password string) error {
	if err := distinct("unlock", out, in); err != nil {
		return err
	}
	doc, err := pdfdoc.Open(in, pdfdoc.LoadOptions{Password: password})
	if err != nil {
		return errs.WithPath(err, errs.CodeLoad, "unlock", in)
	}
	return save("unlock", doc, out, pdfdoc.SaveOptions{})
}
