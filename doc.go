// Package fins provides the entity model of the Financial Insights and
// Notation System: a small language to compose, transform and annotate
// baskets of tickers through a pipeline of chained operations.
//
// The package holds the values every other package agrees on:
//   - Symbol and SymbolRef: a comparable ticker identity and its resolved
//     descriptive data.
//   - Basket and BasketItem: weighted sets of symbols with a value returning
//     algebra (union, intersection, difference, scaling, sorting, filtering).
//   - ColumnSpec, Column and Value: annotations computed per symbol.
//   - Token: the literal or reference operands of commands.
//   - Output: the envelope returned by every command.
//
// Parsing and evaluation live in the dsl package; persistence in the storage
// package; market data in the symbols and eodhd packages.
package fins
