package graph

import (
	"fmt"
	"strings"
)

const articleColumns = `
       l.name AS law_name,
       a.article_number AS article_number,
       coalesce(a.title, '') AS title,
       coalesce(a.content, '') AS content,
       coalesce(a.section, '') AS section,
       a.last_amended AS last_amended`

// searchArticlesQuery scores an article by how many terms its content or title contains.
const searchArticlesQuery = `
MATCH (a:Article)-[:BELONGS_TO]->(l:Law)
WITH a, l, [t IN $terms WHERE a.content CONTAINS t OR coalesce(a.title, '') CONTAINS t] AS hits
WHERE size(hits) > 0
RETURN` + articleColumns + `,
       size(hits) AS matched
ORDER BY matched DESC, law_name ASC, article_number ASC
LIMIT $limit`

const labelCountsQuery = `
MATCH (n)
UNWIND labels(n) AS label
RETURN label, count(*) AS count
ORDER BY label`

// relatedArticlesQuery builds the expansion query. Variable-length bounds cannot be
// parameters in Cypher, so depth is formatted in after validation by the caller.
func relatedArticlesQuery(depth int) string {
	types := make([]string, len(ArticleRelationTypes))
	for i, t := range ArticleRelationTypes {
		types[i] = string(t)
	}
	return fmt.Sprintf(`
UNWIND $seeds AS seed
MATCH (s:Article {article_number: seed.article_number})-[:BELONGS_TO]->(:Law {name: seed.law_name})
MATCH p = (s)-[:%s*1..%d]-(a:Article)
WHERE a <> s
MATCH (a)-[:BELONGS_TO]->(l:Law)
WITH a, l, min(length(p)) AS hops
RETURN`+articleColumns+`,
       hops
ORDER BY hops ASC, law_name ASC, article_number ASC
LIMIT $limit`, strings.Join(types, "|"), depth)
}
