// Package advisories defines the GraphQL types for CVE advisories.
package advisories

import (
	"github.com/graphql-go/graphql"
)

// AdvisoryType represents one CVE record with its derived fields
var AdvisoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Advisory",
	Fields: graphql.Fields{
		"id":            &graphql.Field{Type: graphql.String},
		"datePublished": &graphql.Field{Type: graphql.String},
		"state":         &graphql.Field{Type: graphql.String},
		"cvssScore":     &graphql.Field{Type: graphql.Float},
		"severity":      &graphql.Field{Type: graphql.String},
		"title":         &graphql.Field{Type: graphql.String},
		"vendor":        &graphql.Field{Type: graphql.String},
		"lastUpdated":   &graphql.Field{Type: graphql.String},
	},
})

// AdvisoryPageType represents one page of a filtered advisory listing
var AdvisoryPageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AdvisoryPage",
	Fields: graphql.Fields{
		"advisories": &graphql.Field{Type: graphql.NewList(AdvisoryType)},
		"page":       &graphql.Field{Type: graphql.Int},
		"limit":      &graphql.Field{Type: graphql.Int},
		"total":      &graphql.Field{Type: graphql.Int},
		"totalPages": &graphql.Field{Type: graphql.Int},
	},
})
