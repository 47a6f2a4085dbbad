// Package advisories defines the GraphQL queries for CVE advisories.
package advisories

import (
	"github.com/graphql-go/graphql"
	"github.com/lebnicolas/cvelistV5/database"
)

// filterArgs are shared by every query accepting the filter predicates.
func filterArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"state":    &graphql.ArgumentConfig{Type: graphql.String},
		"severity": &graphql.ArgumentConfig{Type: graphql.String},
		"cvssMin":  &graphql.ArgumentConfig{Type: graphql.Float},
		"cvssMax":  &graphql.ArgumentConfig{Type: graphql.Float},
		"search":   &graphql.ArgumentConfig{Type: graphql.String},
	}
}

// GetQueryFields returns the advisory queries to be mounted in the root schema
func GetQueryFields(db database.DBConnection) graphql.Fields {
	listArgs := filterArgs()
	listArgs["page"] = &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1}
	listArgs["limit"] = &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0}
	listArgs["sort"] = &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "dateDesc"}

	return graphql.Fields{
		"advisory": &graphql.Field{
			Type: AdvisoryType,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveAdvisory(p.Context, db, p.Args["id"].(string))
			},
		},
		"advisories": &graphql.Field{
			Type: AdvisoryPageType,
			Args: listArgs,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveAdvisories(p.Context, db, p.Args)
			},
		},
		"advisoryCount": &graphql.Field{
			Type: graphql.Int,
			Args: filterArgs(),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveAdvisoryCount(p.Context, db, p.Args)
			},
		},
	}
}
