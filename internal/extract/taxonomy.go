// Package extract turns fetched documents into scored contact records.
package extract

import (
	"strings"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// Base target roles for law schools. Variants (interim, acting, co-)
// are generated, not listed.
var lawSchoolRoles = []string{
	// Library leadership
	"Library Director",
	"Law Library Director",
	"Director of the Law Library",
	"Director of Law Library",
	"Associate Law Librarian",
	"Associate Law Library Director",
	"Head Librarian",
	"Law Librarian",
	"Head of Reference",
	"Reference Librarian",
	"Instructional Technology Librarian",
	"Technology Librarian",

	// Academic affairs deans
	"Associate Dean for Academic Affairs",
	"Associate Dean of Academic Affairs",
	"Associate Dean, Academic Affairs",
	"Assistant Dean for Academic Affairs",
	"Assistant Dean of Academic Affairs",
	"Assistant Dean, Academic Affairs",
	"Dean of Academic Affairs",
	"Dean of Students",
	"Associate Dean of Students",
	"Associate Dean for Students",

	// Information services
	"Associate Dean for Information Services",
	"Associate Dean of Information Services",
	"Assistant Dean for Information Services",
	"Assistant Dean of Information Services",
	"Director of Information Services",
	"IT Director",
	"Information Services Director",

	// Legal writing
	"Legal Writing Director",
	"Director of Legal Writing",
	"Director, Legal Writing",
	"Legal Writing Program Director",
	"Associate Director of Legal Writing",

	// Experiential learning
	"Experiential Learning Director",
	"Director of Experiential Learning",
	"Director, Experiential Learning",
	"Experiential Programs Director",
	"Associate Director of Experiential Learning",
	"Associate Director, Experiential Learning",

	// Clinical programs
	"Clinical Programs Director",
	"Director of Clinical Programs",
	"Director, Clinical Programs",
	"Clinical Director",
	"Associate Clinical Director",
	"Clinical Faculty Director",
}

// Base target roles for paralegal programs.
var paralegalProgramRoles = []string{
	// Program directors
	"Paralegal Program Director",
	"Director of Paralegal Studies",
	"Director, Paralegal Studies",
	"Director of Paralegal Program",
	"Paralegal Studies Program Director",
	"Legal Studies Program Director",
	"Director of Legal Studies",
	"Director, Legal Studies",

	// Coordinators
	"Paralegal Studies Coordinator",
	"Paralegal Program Coordinator",
	"Legal Studies Coordinator",
	"Program Coordinator",
	"Paralegal Coordinator",

	// Department leadership
	"Department Chair",
	"Program Chair",
	"Chair, Legal Studies",
	"Legal Studies Department Chair",
	"Paralegal Studies Department Chair",
	"Department Head",

	// Deans
	"Dean of Workforce Programs",
	"Dean of Career and Technical Education",
	"Dean of Career Education",
	"CTE Dean",
	"Workforce Development Dean",
	"Dean, Workforce Programs",
	"Dean, Career and Technical Education",

	// Faculty
	"Legal Studies Faculty",
	"Legal Studies Instructor",
	"Paralegal Studies Faculty",
	"Paralegal Instructor",
	"Legal Studies Professor",
	"Paralegal Studies Professor",
	"Legal Studies Lecturer",
}

var (
	lawSchoolExpanded = expandRoleVariants(lawSchoolRoles)
	paralegalExpanded = expandRoleVariants(paralegalProgramRoles)
)

// RolesFor returns the expanded target-role list for a category.
// Unknown categories match against everything.
func RolesFor(category crawler.Category) []string {
	switch category {
	case crawler.CategoryLawSchool:
		return lawSchoolExpanded
	case crawler.CategoryParalegalProgram:
		return paralegalExpanded
	default:
		combined := make([]string, 0, len(lawSchoolExpanded)+len(paralegalExpanded))
		combined = append(combined, lawSchoolExpanded...)
		combined = append(combined, paralegalExpanded...)
		return combined
	}
}

// expandRoleVariants adds interim/acting variants for every role and
// shared-leadership variants for director, chair and coordinator roles.
func expandRoleVariants(base []string) []string {
	variants := make([]string, 0, len(base)*4)
	seen := make(map[string]struct{})
	add := func(role string) {
		if _, dup := seen[role]; dup {
			return
		}
		seen[role] = struct{}{}
		variants = append(variants, role)
	}

	for _, role := range base {
		add(role)
	}
	for _, role := range base {
		add("Interim " + role)
		add("Acting " + role)
	}
	for _, role := range base {
		switch {
		case strings.Contains(role, "Director"):
			add(strings.Replace(role, "Director", "Co-Director", 1))
		case strings.Contains(role, "Chair"):
			add(strings.Replace(role, "Chair", "Co-Chair", 1))
		case strings.Contains(role, "Coordinator"):
			add(strings.Replace(role, "Coordinator", "Co-Coordinator", 1))
		}
	}
	return variants
}
