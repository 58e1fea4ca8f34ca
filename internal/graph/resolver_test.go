package graph

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"os"
	"testing"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryapp/library-server/internal/auth"
	"github.com/libraryapp/library-server/internal/pubsub"
	"github.com/libraryapp/library-server/internal/service"
	"github.com/libraryapp/library-server/internal/store"
)

const testPassword = "secret"

type testEnv struct {
	schema *graphql.Schema
	auth   *service.AuthService
	store  *store.Store
	broker *pubsub.Broker
}

// setupGraphTest wires a full resolver stack against temporary storage.
func setupGraphTest(t *testing.T) *testEnv {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "library-graph-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	s, err := store.New(tmpDir, logger)
	require.NoError(t, err)

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 0)
	require.NoError(t, err)

	authService, err := service.NewAuthService(s, tokens, testPassword, logger)
	require.NoError(t, err)

	broker := pubsub.NewBroker(16, logger)
	catalog := service.NewCatalogService(s, broker, logger)

	schema := NewSchema(NewResolver(catalog, authService, broker, logger))

	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	})

	return &testEnv{schema: schema, auth: authService, store: s, broker: broker}
}

// authedCtx returns a context carrying a freshly created user.
func (e *testEnv) authedCtx(t *testing.T, username string) context.Context {
	t.Helper()
	user, err := e.auth.CreateUser(context.Background(), service.CreateUserRequest{
		Username:      username,
		FavoriteGenre: "fantasy",
	})
	require.NoError(t, err)
	return auth.ContextWithUser(context.Background(), user)
}

// exec runs a query and decodes the data into out. It returns the error
// messages of the response, empty on success.
func (e *testEnv) exec(t *testing.T, ctx context.Context, query string, vars map[string]any, out any) []string {
	t.Helper()
	resp := e.schema.Exec(ctx, query, "", vars)
	var msgs []string
	for _, respErr := range resp.Errors {
		msgs = append(msgs, respErr.Message)
	}
	if out != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return msgs
}

const addBookMutation = `
	mutation ($title: String!, $author: String!, $published: Int!, $genres: [String!]!) {
		addBook(title: $title, author: $author, published: $published, genres: $genres) {
			title
			published
			genres
			author { name born bookCount }
		}
	}`

func addBookVars(title, author string, published int, genres ...string) map[string]any {
	genreVals := make([]any, len(genres))
	for i, g := range genres {
		genreVals[i] = g
	}
	return map[string]any{
		"title":     title,
		"author":    author,
		"published": published,
		"genres":    genreVals,
	}
}

func TestSchemaParses(t *testing.T) {
	env := setupGraphTest(t)
	assert.NotNil(t, env.schema)
}

func TestQueryCountsEmpty(t *testing.T) {
	env := setupGraphTest(t)

	var data struct {
		BookCount   int32 `json:"bookCount"`
		AuthorCount int32 `json:"authorCount"`
	}
	errs := env.exec(t, context.Background(), `{ bookCount authorCount }`, nil, &data)
	require.Empty(t, errs)
	assert.Equal(t, int32(0), data.BookCount)
	assert.Equal(t, int32(0), data.AuthorCount)
}

func TestAddBookUnauthenticated(t *testing.T) {
	env := setupGraphTest(t)

	resp := env.schema.Exec(context.Background(), addBookMutation, "",
		addBookVars("Mort", "Terry Pratchett", 1987, "fantasy"))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "UNAUTHENTICATED", resp.Errors[0].Extensions["code"])

	var data struct {
		BookCount int32 `json:"bookCount"`
	}
	errs := env.exec(t, context.Background(), `{ bookCount }`, nil, &data)
	require.Empty(t, errs)
	assert.Equal(t, int32(0), data.BookCount, "failed mutation must not write")
}

func TestAddBookAndQuery(t *testing.T) {
	env := setupGraphTest(t)
	ctx := env.authedCtx(t, "ellen")

	var added struct {
		AddBook struct {
			Title     string   `json:"title"`
			Published int32    `json:"published"`
			Genres    []string `json:"genres"`
			Author    struct {
				Name      string `json:"name"`
				Born      *int32 `json:"born"`
				BookCount int32  `json:"bookCount"`
			} `json:"author"`
		} `json:"addBook"`
	}
	errs := env.exec(t, ctx, addBookMutation,
		addBookVars("Mort", "Terry Pratchett", 1987, "fantasy", "comedy"), &added)
	require.Empty(t, errs)
	assert.Equal(t, "Mort", added.AddBook.Title)
	assert.Equal(t, int32(1987), added.AddBook.Published)
	assert.Equal(t, []string{"fantasy", "comedy"}, added.AddBook.Genres)
	assert.Equal(t, "Terry Pratchett", added.AddBook.Author.Name)
	assert.Nil(t, added.AddBook.Author.Born)
	assert.Equal(t, int32(1), added.AddBook.Author.BookCount)

	var counts struct {
		BookCount   int32 `json:"bookCount"`
		AuthorCount int32 `json:"authorCount"`
	}
	errs = env.exec(t, context.Background(), `{ bookCount authorCount }`, nil, &counts)
	require.Empty(t, errs)
	assert.Equal(t, int32(1), counts.BookCount)
	assert.Equal(t, int32(1), counts.AuthorCount)
}

func TestAllBooksGenreFilter(t *testing.T) {
	env := setupGraphTest(t)
	ctx := env.authedCtx(t, "ellen")

	errs := env.exec(t, ctx, addBookMutation,
		addBookVars("Mort", "Terry Pratchett", 1987, "fantasy", "comedy"), nil)
	require.Empty(t, errs)
	errs = env.exec(t, ctx, addBookMutation,
		addBookVars("The Hobbit", "J. R. R. Tolkien", 1937, "fantasy"), nil)
	require.Empty(t, errs)

	var data struct {
		AllBooks []struct {
			Title string `json:"title"`
		} `json:"allBooks"`
	}
	errs = env.exec(t, context.Background(),
		`{ allBooks(genre: "comedy") { title } }`, nil, &data)
	require.Empty(t, errs)
	require.Len(t, data.AllBooks, 1)
	assert.Equal(t, "Mort", data.AllBooks[0].Title)

	data.AllBooks = nil
	errs = env.exec(t, context.Background(), `{ allBooks { title } }`, nil, &data)
	require.Empty(t, errs)
	assert.Len(t, data.AllBooks, 2)

	// The author argument is accepted but applies no filter.
	data.AllBooks = nil
	errs = env.exec(t, context.Background(),
		`{ allBooks(author: "Terry Pratchett") { title } }`, nil, &data)
	require.Empty(t, errs)
	assert.Len(t, data.AllBooks, 2)
}

func TestAllAuthors(t *testing.T) {
	env := setupGraphTest(t)
	ctx := env.authedCtx(t, "ellen")

	errs := env.exec(t, ctx, addBookMutation,
		addBookVars("Mort", "Terry Pratchett", 1987, "fantasy"), nil)
	require.Empty(t, errs)
	errs = env.exec(t, ctx, addBookMutation,
		addBookVars("Guards! Guards!", "Terry Pratchett", 1989, "fantasy"), nil)
	require.Empty(t, errs)

	var data struct {
		AllAuthors []struct {
			Name      string `json:"name"`
			Born      *int32 `json:"born"`
			BookCount *int32 `json:"bookCount"`
		} `json:"allAuthors"`
	}
	errs = env.exec(t, context.Background(),
		`{ allAuthors { name born bookCount } }`, nil, &data)
	require.Empty(t, errs)
	require.Len(t, data.AllAuthors, 1)
	assert.Equal(t, "Terry Pratchett", data.AllAuthors[0].Name)
	assert.Nil(t, data.AllAuthors[0].Born)
	require.NotNil(t, data.AllAuthors[0].BookCount)
	assert.Equal(t, int32(2), *data.AllAuthors[0].BookCount)
}

func TestEditAuthor(t *testing.T) {
	env := setupGraphTest(t)
	ctx := env.authedCtx(t, "ellen")

	errs := env.exec(t, ctx, addBookMutation,
		addBookVars("Mort", "Terry Pratchett", 1987, "fantasy"), nil)
	require.Empty(t, errs)

	const editMutation = `
		mutation ($name: String!, $born: Int!) {
			editAuthor(name: $name, setBornTo: $born) { name born }
		}`

	var data struct {
		EditAuthor *struct {
			Name string `json:"name"`
			Born *int32 `json:"born"`
		} `json:"editAuthor"`
	}
	errs = env.exec(t, ctx, editMutation,
		map[string]any{"name": "Terry Pratchett", "born": 1948}, &data)
	require.Empty(t, errs)
	require.NotNil(t, data.EditAuthor)
	require.NotNil(t, data.EditAuthor.Born)
	assert.Equal(t, int32(1948), *data.EditAuthor.Born)

	// Unknown author resolves to null, not an error.
	data.EditAuthor = nil
	errs = env.exec(t, ctx, editMutation,
		map[string]any{"name": "Nobody", "born": 1900}, &data)
	require.Empty(t, errs)
	assert.Nil(t, data.EditAuthor)
}

func TestCreateUserAndLogin(t *testing.T) {
	env := setupGraphTest(t)
	ctx := context.Background()

	var created struct {
		CreateUser struct {
			Username      string     `json:"username"`
			FavoriteGenre string     `json:"favoriteGenre"`
			ID            graphql.ID `json:"id"`
		} `json:"createUser"`
	}
	errs := env.exec(t, ctx, `
		mutation {
			createUser(username: "ellen", favoriteGenre: "fantasy") {
				username favoriteGenre id
			}
		}`, nil, &created)
	require.Empty(t, errs)
	assert.Equal(t, "ellen", created.CreateUser.Username)
	assert.NotEmpty(t, created.CreateUser.ID)

	// Duplicate username fails with a user input error.
	resp := env.schema.Exec(ctx, `
		mutation {
			createUser(username: "ellen", favoriteGenre: "crime") { id }
		}`, "", nil)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "BAD_USER_INPUT", resp.Errors[0].Extensions["code"])

	var login struct {
		Login *struct {
			Value string `json:"value"`
		} `json:"login"`
	}
	errs = env.exec(t, ctx, `
		mutation {
			login(username: "ellen", password: "`+testPassword+`") { value }
		}`, nil, &login)
	require.Empty(t, errs)
	require.NotNil(t, login.Login)
	assert.NotEmpty(t, login.Login.Value)

	// The issued token resolves back to the user via me.
	user, err := env.auth.Authenticate(ctx, login.Login.Value)
	require.NoError(t, err)

	var me struct {
		Me *struct {
			Username string `json:"username"`
		} `json:"me"`
	}
	errs = env.exec(t, auth.ContextWithUser(ctx, user), `{ me { username } }`, nil, &me)
	require.Empty(t, errs)
	require.NotNil(t, me.Me)
	assert.Equal(t, "ellen", me.Me.Username)
}

func TestLoginWrongCredentials(t *testing.T) {
	env := setupGraphTest(t)
	ctx := context.Background()

	errs := env.exec(t, ctx, `
		mutation {
			createUser(username: "ellen", favoriteGenre: "fantasy") { id }
		}`, nil, nil)
	require.Empty(t, errs)

	resp := env.schema.Exec(ctx, `
		mutation { login(username: "ellen", password: "nope") { value } }`, "", nil)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "BAD_USER_INPUT", resp.Errors[0].Extensions["code"])

	resp2 := env.schema.Exec(ctx, `
		mutation { login(username: "nobody", password: "`+testPassword+`") { value } }`, "", nil)
	require.Len(t, resp2.Errors, 1)
	assert.Equal(t, resp.Errors[0].Message, resp2.Errors[0].Message,
		"unknown user and wrong password must be indistinguishable")
}

func TestMeUnauthenticated(t *testing.T) {
	env := setupGraphTest(t)

	var data struct {
		Me *struct {
			Username string `json:"username"`
		} `json:"me"`
	}
	errs := env.exec(t, context.Background(), `{ me { username } }`, nil, &data)
	require.Empty(t, errs)
	assert.Nil(t, data.Me)
}

func TestBookAddedSubscription(t *testing.T) {
	env := setupGraphTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payloads, err := env.schema.Subscribe(ctx,
		`subscription { bookAdded { title author { name } } }`, "", nil)
	require.NoError(t, err)

	// Let the resolver register its subscriber before publishing.
	require.Eventually(t, func() bool {
		return env.broker.SubscriberCount(pubsub.TopicBookAdded) > 0
	}, 2*time.Second, 10*time.Millisecond)

	authedCtx := env.authedCtx(t, "ellen")
	errs := env.exec(t, authedCtx, addBookMutation,
		addBookVars("Mort", "Terry Pratchett", 1987, "fantasy"), nil)
	require.Empty(t, errs)

	select {
	case payload := <-payloads:
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"Mort"`)
		assert.Contains(t, string(raw), `"Terry Pratchett"`)
	case <-time.After(5 * time.Second):
		t.Fatal("no subscription payload received")
	}
}
