package schema

import (
	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
)

// typeNames holds every generated name derived from one node type.
type typeNames struct {
	Plural          string // movies
	PluralPascal    string // Movies
	Aggregate       string // moviesAggregate
	Create          string // createMovies
	Update          string // updateMovies
	Delete          string // deleteMovies
	Where           string
	Options         string
	Sort            string
	CreateInput     string
	UpdateInput     string
	ConnectInput    string
	DisconnectInput string
	AggregateResult string
	CreateResponse  string
	UpdateResponse  string
}

func namesFor(typeName string) typeNames {
	pascal := strcase.ToCamel(inflection.Plural(typeName))
	plural := strcase.ToLowerCamel(pascal)
	return typeNames{
		Plural:          plural,
		PluralPascal:    pascal,
		Aggregate:       plural + "Aggregate",
		Create:          "create" + pascal,
		Update:          "update" + pascal,
		Delete:          "delete" + pascal,
		Where:           typeName + "Where",
		Options:         typeName + "Options",
		Sort:            typeName + "Sort",
		CreateInput:     typeName + "CreateInput",
		UpdateInput:     typeName + "UpdateInput",
		ConnectInput:    typeName + "ConnectInput",
		DisconnectInput: typeName + "DisconnectInput",
		AggregateResult: typeName + "AggregateSelection",
		CreateResponse:  "Create" + pascal + "MutationResponse",
		UpdateResponse:  "Update" + pascal + "MutationResponse",
	}
}

// relationInputNames are the per-relationship input type names.
type relationInputNames struct {
	Field      string // MovieActorsFieldInput
	Create     string // MovieActorsCreateFieldInput
	Connect    string // MovieActorsConnectFieldInput
	Disconnect string // MovieActorsDisconnectFieldInput
}

func relationNamesFor(typeName, field string) relationInputNames {
	prefix := typeName + strcase.ToCamel(field)
	return relationInputNames{
		Field:      prefix + "FieldInput",
		Create:     prefix + "CreateFieldInput",
		Connect:    prefix + "ConnectFieldInput",
		Disconnect: prefix + "DisconnectFieldInput",
	}
}
