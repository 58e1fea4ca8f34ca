package graph

import (
	"context"
	"fmt"
	"log/slog"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/libraryapp/library-server/internal/auth"
	"github.com/libraryapp/library-server/internal/domain"
	"github.com/libraryapp/library-server/internal/pubsub"
	"github.com/libraryapp/library-server/internal/service"
	"github.com/libraryapp/library-server/internal/store"
)

// Resolver is the root resolver. One instance serves all queries,
// mutations, and subscriptions.
type Resolver struct {
	catalog *service.CatalogService
	auth    *service.AuthService
	broker  *pubsub.Broker
	logger  *slog.Logger
}

// NewResolver creates the root resolver.
func NewResolver(
	catalog *service.CatalogService,
	authService *service.AuthService,
	broker *pubsub.Broker,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		catalog: catalog,
		auth:    authService,
		broker:  broker,
		logger:  logger,
	}
}

// NewSchema parses the schema against the root resolver. Panics on a
// schema/resolver mismatch, which is a programming error caught at startup.
func NewSchema(resolver *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(Schema, resolver)
}

// BookCount resolves the bookCount query.
func (r *Resolver) BookCount(ctx context.Context) (int32, error) {
	count, err := r.catalog.BookCount(ctx)
	return int32(count), err
}

// AuthorCount resolves the authorCount query.
func (r *Resolver) AuthorCount(ctx context.Context) (int32, error) {
	count, err := r.catalog.AuthorCount(ctx)
	return int32(count), err
}

// AllBooks resolves the allBooks query. The genre argument filters on
// membership in the book's genre list. The author argument is accepted
// but not applied (see Schema).
func (r *Resolver) AllBooks(ctx context.Context, args struct {
	Author *string
	Genre  *string
}) ([]*bookResolver, error) {
	genre := ""
	if args.Genre != nil {
		genre = *args.Genre
	}

	books, err := r.catalog.AllBooks(ctx, genre)
	if err != nil {
		return nil, err
	}

	resolvers := make([]*bookResolver, 0, len(books))
	for _, b := range books {
		resolvers = append(resolvers, &bookResolver{book: b.Book, author: b.Author})
	}
	return resolvers, nil
}

// AllAuthors resolves the allAuthors query.
func (r *Resolver) AllAuthors(ctx context.Context) (*[]*authorResolver, error) {
	authors, err := r.catalog.AllAuthors(ctx)
	if err != nil {
		return nil, err
	}

	resolvers := make([]*authorResolver, 0, len(authors))
	for _, a := range authors {
		resolvers = append(resolvers, &authorResolver{author: a})
	}
	return &resolvers, nil
}

// Me resolves the me query: the authenticated user, or null for anonymous
// requests.
func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, nil
	}
	return &userResolver{user: user}, nil
}

// AddBook resolves the addBook mutation.
func (r *Resolver) AddBook(ctx context.Context, args struct {
	Title     string
	Author    string
	Published int32
	Genres    []string
}) (*bookResolver, error) {
	result, err := r.catalog.AddBook(ctx, auth.UserFromContext(ctx), service.AddBookRequest{
		Title:     args.Title,
		Author:    args.Author,
		Published: int(args.Published),
		Genres:    args.Genres,
	})
	if err != nil {
		return nil, err
	}
	return &bookResolver{book: result.Book, author: result.Author}, nil
}

// EditAuthor resolves the editAuthor mutation. Resolves to null when no
// author matches the name.
func (r *Resolver) EditAuthor(ctx context.Context, args struct {
	Name      string
	SetBornTo int32
}) (*authorResolver, error) {
	author, err := r.catalog.EditAuthor(ctx, auth.UserFromContext(ctx), service.EditAuthorRequest{
		Name:      args.Name,
		SetBornTo: int(args.SetBornTo),
	})
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, nil
	}
	return &authorResolver{author: author}, nil
}

// CreateUser resolves the createUser mutation.
func (r *Resolver) CreateUser(ctx context.Context, args struct {
	Username      string
	FavoriteGenre string
}) (*userResolver, error) {
	user, err := r.auth.CreateUser(ctx, service.CreateUserRequest{
		Username:      args.Username,
		FavoriteGenre: args.FavoriteGenre,
	})
	if err != nil {
		return nil, err
	}
	return &userResolver{user: user}, nil
}

// Login resolves the login mutation.
func (r *Resolver) Login(ctx context.Context, args struct {
	Username string
	Password string
}) (*tokenResolver, error) {
	resp, err := r.auth.Login(ctx, service.LoginRequest{
		Username: args.Username,
		Password: args.Password,
	})
	if err != nil {
		return nil, err
	}
	return &tokenResolver{value: resp.Token}, nil
}

// BookAdded resolves the bookAdded subscription. The returned channel
// delivers every book added while the subscriber's context is alive and
// closes when the context ends.
func (r *Resolver) BookAdded(ctx context.Context) (<-chan *bookResolver, error) {
	events := r.broker.Subscribe(ctx, pubsub.TopicBookAdded)
	out := make(chan *bookResolver)

	go func() {
		defer close(out)
		for ev := range events {
			added, ok := ev.(*store.BookWithAuthor)
			if !ok {
				r.logger.Error("unexpected payload type on book-added topic",
					"type", fmt.Sprintf("%T", ev))
				continue
			}
			select {
			case out <- &bookResolver{book: added.Book, author: added.Author}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

type bookResolver struct {
	book   *domain.Book
	author *domain.Author
}

func (r *bookResolver) ID() graphql.ID { return graphql.ID(r.book.ID) }
func (r *bookResolver) Title() string { return r.book.Title }
func (r *bookResolver) Published() int32 { return int32(r.book.Published) }
func (r *bookResolver) Genres() []string { return r.book.Genres }
func (r *bookResolver) Author() *authorResolver {
	return &authorResolver{author: r.author}
}

type authorResolver struct {
	author *domain.Author
}

func (r *authorResolver) Name() string { return r.author.Name }

func (r *authorResolver) BookCount() *int32 {
	count := int32(r.author.BookCount)
	return &count
}

func (r *authorResolver) Born() *int32 {
	if r.author.Born == nil {
		return nil
	}
	born := int32(*r.author.Born)
	return &born
}

type userResolver struct {
	user *domain.User
}

func (r *userResolver) ID() graphql.ID { return graphql.ID(r.user.ID) }
func (r *userResolver) Username() string { return r.user.Username }
func (r *userResolver) FavoriteGenre() string { return r.user.FavoriteGenre }

type tokenResolver struct {
	value string
}

func (r *tokenResolver) Value() string { return r.value }
