// Package graphql assembles the root GraphQL schema for the CVE catalog.
package graphql

import (
	"github.com/graphql-go/graphql"
	"github.com/lebnicolas/cvelistV5/database"
	"github.com/lebnicolas/cvelistV5/graphql/modules/advisories"
)

// CreateSchema builds the root query schema from the module query fields.
func CreateSchema(db database.DBConnection) (graphql.Schema, error) {
	rootFields := graphql.Fields{}
	for name, field := range advisories.GetQueryFields(db) {
		rootFields[name] = field
	}

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: rootFields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: rootQuery})
}
