package handlers

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"recipeapi/internal/apperror"
)

// respondError writes the JSON body for err. Domain errors map to their
// client status; anything else is logged and reported as a generic 500.
func respondError(c *fiber.Ctx, err error, action string) error {
	var appErr *apperror.AppError
	errors.As(err, &appErr)

	switch {
	case errors.Is(err, apperror.ErrValidation):
		body := fiber.Map{"message": "Validation failed"}
		if appErr != nil {
			body["errors"] = appErr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, apperror.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found."})
	case errors.Is(err, apperror.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, apperror.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
	}

	log.WithError(err).WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Errorf("Could not %s", action)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not " + action,
	})
}

// invalidBody reports a request body that could not be decoded. A value of
// the wrong JSON type is reported against its field.
func invalidBody(c *fiber.Ctx, err error) error {
	log.Debugf("Error parsing request body: %v", err)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := strings.SplitN(typeErr.Field, ".", 2)[0]
		return respondError(c, apperror.ValidationFailed(field, typeMessage(typeErr.Type)), "parse request body")
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

func typeMessage(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "A valid integer is required."
	case reflect.Float32, reflect.Float64:
		return "A valid number is required."
	case reflect.Bool:
		return "Must be a valid boolean."
	case reflect.Slice, reflect.Array:
		return "Expected a list of items."
	case reflect.String:
		return "Not a valid string."
	}
	return "Invalid value."
}

// methodNotAllowed answers verbs a fixed-shape endpoint does not support.
func methodNotAllowed(allow ...string) fiber.Handler {
	allowed := strings.Join(allow, ", ")
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAllow, allowed)
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
			"message": "Method \"" + c.Method() + "\" not allowed.",
		})
	}
}

// pathID parses the :id route parameter. A malformed ID cannot name any
// row, so it is reported as not found.
func pathID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NotFound("resource", c.Params("id"))
	}
	return uint(id), nil
}

// queryIDs parses a comma separated list of IDs such as "1,2,3".
func queryIDs(c *fiber.Ctx, key string) ([]uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, apperror.ValidationFailed(key, "A valid integer is required.")
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// queryFlag parses an integer flag; any non-zero value is true.
func queryFlag(c *fiber.Ctx, key string) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false, apperror.ValidationFailed(key, "A valid integer is required.")
	}
	return n != 0, nil
}
