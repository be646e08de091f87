package graph

import (
	"net/http"
	"strings"

	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
)

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler executes GraphQL requests against schema. Errors travel in the
// response body with status 200.
// @Summary      GraphQL endpoint
// @Tags         graphql
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  models.ErrorResponse
// @Router       /graphql [post]
func Handler(schema graphql.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
			utils.ErrorResponse(c, http.StatusBadRequest, "A GraphQL query is required")
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})
		c.JSON(http.StatusOK, result)
	}
}
