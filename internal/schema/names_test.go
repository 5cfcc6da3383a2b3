package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamesFor(t *testing.T) {
	tests := []struct {
		typeName string
		plural   string
		create   string
		response string
	}{
		{typeName: "Movie", plural: "movies", create: "createMovies", response: "CreateMoviesMutationResponse"},
		{typeName: "Person", plural: "people", create: "createPeople", response: "CreatePeopleMutationResponse"},
		{typeName: "Category", plural: "categories", create: "createCategories", response: "CreateCategoriesMutationResponse"},
		{typeName: "UserAccount", plural: "userAccounts", create: "createUserAccounts", response: "CreateUserAccountsMutationResponse"},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			n := namesFor(tt.typeName)
			assert.Equal(t, tt.plural, n.Plural)
			assert.Equal(t, tt.plural+"Aggregate", n.Aggregate)
			assert.Equal(t, tt.create, n.Create)
			assert.Equal(t, tt.response, n.CreateResponse)
			assert.Equal(t, tt.typeName+"Where", n.Where)
		})
	}
}

func TestRelationNamesFor(t *testing.T) {
	n := relationNamesFor("Movie", "actors")

	assert.Equal(t, "MovieActorsFieldInput", n.Field)
	assert.Equal(t, "MovieActorsCreateFieldInput", n.Create)
	assert.Equal(t, "MovieActorsConnectFieldInput", n.Connect)
	assert.Equal(t, "MovieActorsDisconnectFieldInput", n.Disconnect)
}
