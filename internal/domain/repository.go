// Package domain contains the core data structures and domain logic for the application.
package domain

import "strings"

// Repository is a repository record as seen during one run.
// Records are fetched once and never mutated afterwards.
type Repository struct {
	FullName        string
	Owner           string
	Fork            bool
	PrimaryLanguage string
	// Upstream is the full name of the source (or parent) project of a fork.
	// It is empty when the API did not report any linkage.
	Upstream string
}

// CanonicalKey returns the identity of the project this repository belongs to:
// its upstream for linked forks, otherwise its own full name.
func (r Repository) CanonicalKey() string {
	if r.Upstream != "" {
		return r.Upstream
	}
	return r.FullName
}

// OwnedBy reports whether the repository owner matches login, ignoring case.
func (r Repository) OwnedBy(login string) bool {
	return strings.EqualFold(r.Owner, login)
}

// Contributor is a single entry from a repository's contributors listing.
type Contributor struct {
	Login         string
	Contributions int
}

// SplitFullName splits "owner/name" into its parts.
func SplitFullName(fullName string) (owner, name string, ok bool) {
	owner, name, ok = strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}
