// Package repository defines the data-access interfaces for the
// property-management domain. Every site-scoped method takes the
// active siteID explicitly; implementations must never return or
// mutate rows belonging to another site.
package repository
