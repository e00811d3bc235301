package services

import (
	log "github.com/sirupsen/logrus"

	"recipeapi/internal/models"
)

// Routing keys of the recipe lifecycle events.
const (
	EventRecipeCreated       = "recipe.created"
	EventRecipeUpdated       = "recipe.updated"
	EventRecipeDeleted       = "recipe.deleted"
	EventRecipeImageUploaded = "recipe.image_uploaded"
)

// EventPublisher publishes domain events. The RabbitMQ client satisfies it.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// RecipeEvent is the payload of every recipe event.
type RecipeEvent struct {
	RecipeID uint   `json:"recipe_id"`
	UserID   uint   `json:"user_id"`
	Title    string `json:"title"`
}

// publishRecipeEvent sends an event when a publisher is configured. Failures
// are logged and never fail the request.
func publishRecipeEvent(p EventPublisher, routingKey string, recipe *models.Recipe) {
	if p == nil {
		return
	}
	event := RecipeEvent{RecipeID: recipe.ID, UserID: recipe.UserID, Title: recipe.Title}
	if err := p.Publish(routingKey, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"routing_key": routingKey,
			"recipe_id":   recipe.ID,
		}).Warn("Failed to publish recipe event")
	}
}
