// Package graph exposes the library catalog over GraphQL. The schema and
// resolvers cover book and author queries, the catalog mutations, account
// handling, and a live subscription for newly added books.
package graph

// Schema is the GraphQL schema definition. Field and argument names are a
// compatibility contract with existing clients and must not change.
//
// The author argument of allBooks is accepted but not implemented as a
// filter. Clients depend on the argument being valid, so it stays in the
// schema until the filter ships.
const Schema = `
	schema {
		query: Query
		mutation: Mutation
		subscription: Subscription
	}

	type Query {
		bookCount: Int!
		authorCount: Int!
		allBooks(author: String, genre: String): [Book!]!
		allAuthors: [Author]
		me: User
	}

	type Mutation {
		addBook(
			title: String!
			author: String!
			published: Int!
			genres: [String!]!
		): Book
		editAuthor(name: String!, setBornTo: Int!): Author
		createUser(username: String!, favoriteGenre: String!): User
		login(username: String!, password: String!): Token
	}

	type Subscription {
		bookAdded: Book!
	}

	type Book {
		title: String!
		published: Int!
		author: Author!
		genres: [String!]!
		id: ID!
	}

	type Author {
		name: String!
		born: Int
		bookCount: Int
	}

	type User {
		username: String!
		favoriteGenre: String!
		id: ID!
	}

	type Token {
		value: String!
	}
`
